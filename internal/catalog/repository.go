package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
)

// ErrDuplicate is returned when a product or batch code is already taken.
var ErrDuplicate = errors.New("catalog: duplicate code")

type Repository interface {
	// Products
	CreateProduct(ctx context.Context, p *model.Product) error
	FindProduct(ctx context.Context, code int64) (*model.Product, error)
	UpdateProductDescription(ctx context.Context, code int64, description string, at time.Time) (bool, error)

	// Batches
	CreateBatch(ctx context.Context, b *model.Batch) error
	FindBatch(ctx context.Context, code string) (*model.Batch, error)
	FindBatches(ctx context.Context, filters *dto.BatchFilters) ([]model.Batch, int, error)
	SetBatchActive(ctx context.Context, code string, active bool, at time.Time) (bool, error)

	// DecrementStock lowers quantity only when enough is on hand; false means
	// nothing changed.
	DecrementStock(ctx context.Context, batchCode string, quantity float64, at time.Time) (bool, error)

	// Movements / Audit
	LogMovement(ctx context.Context, movement *model.StockMovement) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}

// UnitOfWork scopes several repository writes to one transaction.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
