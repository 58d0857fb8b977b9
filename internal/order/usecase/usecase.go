package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-sales-service/internal/apperror"
	"github.com/fekuna/omnipos-sales-service/internal/auth"
	"github.com/fekuna/omnipos-sales-service/internal/cart"
	catdto "github.com/fekuna/omnipos-sales-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/order"
	"github.com/fekuna/omnipos-sales-service/internal/order/dto"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/logger"
)

var tracer = otel.Tracer("github.com/fekuna/omnipos-sales-service/internal/order")

const defaultLockTTL = 30 * time.Second

type Deps struct {
	Repo      order.Repository
	UoW       order.UnitOfWork
	Stock     order.StockDecrementer
	Publisher order.EventPublisher // optional
	Cache     cache.Cache
	Logger    logger.ZapLogger
	LockTTL   time.Duration
}

type orderUseCase struct {
	repo      order.Repository
	uow       order.UnitOfWork
	stock     order.StockDecrementer
	publisher order.EventPublisher
	cache     cache.Cache
	logger    logger.ZapLogger
	lockTTL   time.Duration
	now       func() time.Time
}

func NewOrderUseCase(d Deps) order.UseCase {
	if d.LockTTL <= 0 {
		d.LockTTL = defaultLockTTL
	}
	if d.Cache == nil {
		d.Cache = cache.NewLocalCache()
	}
	return &orderUseCase{
		repo:      d.Repo,
		uow:       d.UoW,
		stock:     d.Stock,
		publisher: d.Publisher,
		cache:     d.Cache,
		logger:    d.Logger,
		lockTTL:   d.LockTTL,
		now:       time.Now,
	}
}

// CommitOrder turns the session's cart into an order and returns it as
// stored. Header, items and every stock decrement share one transaction:
// either all of them persist or none.
func (uc *orderUseCase) CommitOrder(ctx context.Context, sess auth.Session, c *cart.Cart, input *dto.CommitOrderInput) (committed *model.Order, err error) {
	const op = "order.CommitOrder"

	ctx, span := tracer.Start(ctx, "order.Commit", trace.WithSpanKind(trace.SpanKindInternal))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, string(apperror.KindOf(err)))
		}
		span.End()
	}()

	if !sess.CanCommit {
		return nil, apperror.NotAuthorized(op)
	}

	method := input.PaymentMethod
	if method == "" {
		method = model.PaymentMethodCash
	}
	if !method.Valid() {
		return nil, apperror.Validation(op, "payment_method", fmt.Sprintf("unknown payment method %q", method))
	}
	if math.IsNaN(input.CustomerPaid) || math.IsInf(input.CustomerPaid, 0) || input.CustomerPaid < 0 {
		return nil, apperror.Validation(op, "customer_paid", "customer paid amount must be a non-negative number")
	}

	lockKey := "lock:checkout:" + sess.ID
	lockValue := uuid.New().String()
	acquired, lockErr := uc.cache.AcquireLock(ctx, lockKey, lockValue, uc.lockTTL)
	if lockErr != nil {
		uc.logger.Warn("checkout lock unavailable, continuing without it", zap.String("session_id", sess.ID), zap.Error(lockErr))
	} else if !acquired {
		return nil, apperror.Busy(op, "a checkout is already running for this session")
	} else {
		defer func() {
			if err := uc.cache.ReleaseLock(context.WithoutCancel(ctx), lockKey, lockValue); err != nil {
				uc.logger.Warn("failed to release checkout lock", zap.String("session_id", sess.ID), zap.Error(err))
			}
		}()
	}

	lines := c.Lines()
	if len(lines) == 0 {
		return nil, apperror.Validation(op, "cart", "cart is empty")
	}

	var totalCost, totalDiscount float64
	items := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		totalCost += l.Total()
		totalDiscount += l.TotalDiscount()
		items = append(items, model.OrderItem{
			ID:              uuid.New().String(),
			ProductCode:     l.ProductCode,
			ProductName:     l.Description,
			BatchCode:       l.BatchCode,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			DiscountPerUnit: l.Discount,
			TotalDiscount:   l.TotalDiscount(),
			LineTotal:       l.Total(),
		})
	}

	if method == model.PaymentMethodCash && input.CustomerPaid+model.QuantityEpsilon < totalCost {
		return nil, apperror.Validation(op, "customer_paid", "cash payment does not cover the order total")
	}

	status := model.PaymentStatusPending
	if method == model.PaymentMethodCash {
		status = model.PaymentStatusPaid
	}

	now := uc.now()
	o := &model.Order{
		IssuedAt:      now,
		TotalCost:     totalCost,
		CustomerID:    input.CustomerID,
		CustomerName:  input.CustomerName,
		Discount:      totalDiscount,
		OperatorID:    sess.OperatorID,
		OrderClass:    sess.OrderClass(),
		PaymentMethod: method,
		PaymentStatus: status,
		CustomerPaid:  input.CustomerPaid,
		Balance:       input.CustomerPaid - totalCost,
	}
	if status == model.PaymentStatusPaid {
		o.PaidAt = &now
		o.PaidBy = &o.OperatorID
	}

	err = uc.uow.RunInTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.Create(ctx, o, items); err != nil {
			return err
		}
		ref := strconv.FormatInt(o.ID, 10)
		for _, it := range items {
			err := uc.stock.DecrementStock(ctx, &catdto.DecrementStockInput{
				BatchCode:     it.BatchCode,
				Quantity:      it.Quantity,
				ReferenceType: model.ReferenceTypeOrder,
				ReferenceID:   ref,
				OperatorID:    sess.OperatorID,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrInsufficientStock) {
			return nil, err
		}
		uc.logger.Error("order commit rolled back", zap.String("session_id", sess.ID), zap.Error(err))
		return nil, apperror.CommitFailure(op, err)
	}

	span.SetAttributes(
		attribute.Int64("order.id", o.ID),
		attribute.String("order.payment_method", string(method)),
		attribute.Int("order.lines", len(items)),
	)

	c.Clear()

	uc.logger.Info("order committed",
		zap.Int64("order_id", o.ID),
		zap.String("operator_id", o.OperatorID),
		zap.String("payment_method", string(o.PaymentMethod)),
		zap.String("payment_status", string(o.PaymentStatus)),
		zap.Float64("total_cost", o.TotalCost),
	)

	uc.publishCommitted(ctx, o, items)
	uc.invalidateReports(ctx)

	return o, nil
}

// CompletePayment settles a PENDING order. It reports false, without error,
// when there was nothing to settle. Stock is never touched here; it was
// decremented when the order was committed.
func (uc *orderUseCase) CompletePayment(ctx context.Context, sess auth.Session, orderID int64) (ok bool, err error) {
	const op = "order.CompletePayment"

	ctx, span := tracer.Start(ctx, "order.CompletePayment", trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attribute.Int64("order.id", orderID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, string(apperror.KindOf(err)))
		}
		span.SetAttributes(attribute.Bool("order.completed", ok))
		span.End()
	}()

	if !sess.CanCommit {
		return false, apperror.NotAuthorized(op)
	}

	now := uc.now()
	ok, err = uc.repo.MarkPaid(ctx, orderID, sess.VisibleClasses(), sess.OperatorID, now)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		uc.logger.Info("payment completion was a no-op", zap.Int64("order_id", orderID))
		return false, nil
	}

	uc.logger.Info("payment completed", zap.Int64("order_id", orderID), zap.String("operator_id", sess.OperatorID))

	uc.publish(ctx, strconv.FormatInt(orderID, 10), dto.PaymentCompletedEvent{
		Type:    dto.EventPaymentCompleted,
		OrderID: orderID,
		PaidBy:  sess.OperatorID,
		PaidAt:  now,
	})
	return true, nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, sess auth.Session, id int64) (*dto.OrderDetail, error) {
	const op = "order.GetOrder"

	o, err := uc.visibleOrder(ctx, op, sess, id)
	if err != nil {
		return nil, err
	}
	items, err := uc.repo.ListItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &dto.OrderDetail{Order: *o, Items: items}, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, sess auth.Session, filters *dto.OrderFilters) ([]model.Order, int, error) {
	f := *filters
	f.Classes = sess.VisibleClasses()
	return uc.repo.FindAll(ctx, &f)
}

func (uc *orderUseCase) ListOrderItems(ctx context.Context, sess auth.Session, orderID int64) ([]model.OrderItem, error) {
	const op = "order.ListOrderItems"

	if _, err := uc.visibleOrder(ctx, op, sess, orderID); err != nil {
		return nil, err
	}
	items, err := uc.repo.ListItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

func (uc *orderUseCase) visibleOrder(ctx context.Context, op string, sess auth.Session, id int64) (*model.Order, error) {
	o, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if o == nil || !sess.CanSee(o.OrderClass) {
		return nil, apperror.NotFound(op, fmt.Sprintf("order %d", id))
	}
	return o, nil
}

func (uc *orderUseCase) publishCommitted(ctx context.Context, o *model.Order, items []model.OrderItem) {
	evItems := make([]dto.EventItem, len(items))
	for i, it := range items {
		evItems[i] = dto.EventItem{BatchCode: it.BatchCode, Quantity: it.Quantity, LineTotal: it.LineTotal}
	}
	uc.publish(ctx, strconv.FormatInt(o.ID, 10), dto.OrderCommittedEvent{
		Type:          dto.EventOrderCommitted,
		OrderID:       o.ID,
		OrderClass:    o.OrderClass,
		OperatorID:    o.OperatorID,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		TotalCost:     o.TotalCost,
		Discount:      o.Discount,
		Balance:       o.Balance,
		Items:         evItems,
		IssuedAt:      o.IssuedAt,
	})
}

func (uc *orderUseCase) publish(ctx context.Context, key string, event any) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.PublishJSON(context.WithoutCancel(ctx), key, event); err != nil {
		uc.logger.Error("failed to publish order event", zap.String("key", key), zap.Error(err))
	}
}

func (uc *orderUseCase) invalidateReports(ctx context.Context) {
	if err := uc.cache.DeletePrefix(context.WithoutCancel(ctx), cache.ReportKeyPrefix); err != nil {
		uc.logger.Warn("failed to invalidate report cache", zap.Error(err))
	}
}
