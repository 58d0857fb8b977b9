package order

import (
	"context"
	"time"

	catdto "github.com/fekuna/omnipos-sales-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/order/dto"
)

type Repository interface {
	// Create inserts the header and its items, filling in the generated order id.
	Create(ctx context.Context, o *model.Order, items []model.OrderItem) error
	FindByID(ctx context.Context, id int64) (*model.Order, error)
	ListItems(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	FindAll(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error)

	// MarkPaid moves a PENDING order of one of classes to PAID. false means
	// nothing matched: absent, not visible, or already paid.
	MarkPaid(ctx context.Context, id int64, classes []model.OrderClass, paidBy string, at time.Time) (bool, error)

	// SumRevenue totals total_cost of orders issued in [from, to).
	SumRevenue(ctx context.Context, from, to time.Time) (float64, error)
}

type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// StockDecrementer is the catalog's atomic decrement.
type StockDecrementer interface {
	DecrementStock(ctx context.Context, input *catdto.DecrementStockInput) error
}

// EventPublisher delivers order events. Delivery is best effort.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, value any) error
}
