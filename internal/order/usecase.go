package order

import (
	"context"

	"github.com/fekuna/omnipos-sales-service/internal/auth"
	"github.com/fekuna/omnipos-sales-service/internal/cart"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/order/dto"
)

type UseCase interface {
	CommitOrder(ctx context.Context, sess auth.Session, c *cart.Cart, input *dto.CommitOrderInput) (*model.Order, error)
	CompletePayment(ctx context.Context, sess auth.Session, orderID int64) (bool, error)

	GetOrder(ctx context.Context, sess auth.Session, id int64) (*dto.OrderDetail, error)
	ListOrders(ctx context.Context, sess auth.Session, filters *dto.OrderFilters) ([]model.Order, int, error)
	ListOrderItems(ctx context.Context, sess auth.Session, orderID int64) ([]model.OrderItem, error)
}
