package catalog

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	UpdateProductDescription(ctx context.Context, code int64, description string) (*model.Product, error)

	RegisterBatch(ctx context.Context, input *dto.RegisterBatchInput) (*model.Batch, error)
	DeactivateBatch(ctx context.Context, code string) error
	GetBatch(ctx context.Context, code string) (*model.Batch, error)
	SearchBatches(ctx context.Context, filters *dto.BatchFilters) ([]model.Batch, int, error)

	DecrementStock(ctx context.Context, input *dto.DecrementStockInput) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
}
