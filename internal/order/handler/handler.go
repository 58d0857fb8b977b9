package handler

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fekuna/omnipos-sales-service/internal/apperror"
	"github.com/fekuna/omnipos-sales-service/internal/auth"
	"github.com/fekuna/omnipos-sales-service/internal/cart"
	"github.com/fekuna/omnipos-sales-service/internal/catalog"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/order"
	"github.com/fekuna/omnipos-sales-service/internal/order/dto"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/format"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/i18n"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/rpcstruct"
)

type SalesHandler struct {
	carts   *cart.Registry
	catalog catalog.UseCase
	uc      order.UseCase
	tr      *i18n.Translator
	logger  logger.ZapLogger
}

var _ SalesServiceServer = (*SalesHandler)(nil)

func NewSalesHandler(carts *cart.Registry, cat catalog.UseCase, uc order.UseCase, tr *i18n.Translator, log logger.ZapLogger) *SalesHandler {
	return &SalesHandler{
		carts:   carts,
		catalog: cat,
		uc:      uc,
		tr:      tr,
		logger:  log,
	}
}

func session(ctx context.Context) (auth.Session, error) {
	sess, ok := auth.SessionFromContext(ctx)
	if !ok {
		return auth.Session{}, status.Error(codes.Unauthenticated, "missing operator session")
	}
	return sess, nil
}

// AddLine: batch_code, quantity, unit_price (defaults to the batch selling
// price), discount.
func (h *SalesHandler) AddLine(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}

	batchCode := strings.TrimSpace(rpcstruct.String(req, "batch_code"))
	quantity, _ := rpcstruct.Number(req, "quantity")
	discount, _ := rpcstruct.Number(req, "discount")

	unitPrice, ok := rpcstruct.Number(req, "unit_price")
	if !ok && batchCode != "" {
		b, err := h.catalog.GetBatch(ctx, batchCode)
		switch {
		case err == nil:
			unitPrice = b.SellingPrice
		case !errors.Is(err, apperror.ErrNotFound):
			return nil, h.toStatus(ctx, err)
		}
	}

	c := h.carts.Get(sess.ID)
	if err := c.AddLine(ctx, batchCode, quantity, unitPrice, discount); err != nil {
		return nil, h.toStatus(ctx, err)
	}
	return h.cartResponse(ctx, c)
}

// RemoveLine: batch_code.
func (h *SalesHandler) RemoveLine(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	c := h.carts.Get(sess.ID)
	c.RemoveLine(strings.TrimSpace(rpcstruct.String(req, "batch_code")))
	return h.cartResponse(ctx, c)
}

func (h *SalesHandler) GetCart(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	return h.cartResponse(ctx, h.carts.Get(sess.ID))
}

// DiscardCart cancels the sale in progress.
func (h *SalesHandler) DiscardCart(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	h.carts.Discard(sess.ID)
	return h.cartResponse(ctx, h.carts.Get(sess.ID))
}

// CommitOrder: payment_method, customer_paid, customer_id, customer_name.
func (h *SalesHandler) CommitOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}

	input := &dto.CommitOrderInput{
		PaymentMethod: model.PaymentMethod(strings.ToUpper(strings.TrimSpace(rpcstruct.String(req, "payment_method")))),
	}
	input.CustomerPaid, _ = rpcstruct.Number(req, "customer_paid")
	if _, ok := rpcstruct.Number(req, "customer_id"); ok {
		id, err := rpcstruct.Int(req, "customer_id")
		if err != nil {
			return nil, err
		}
		input.CustomerID = &id
	}
	if name := strings.TrimSpace(rpcstruct.String(req, "customer_name")); name != "" {
		input.CustomerName = &name
	}

	o, err := h.uc.CommitOrder(ctx, sess, h.carts.Get(sess.ID), input)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}

	lang := i18n.LanguageFrom(ctx)
	return rpcstruct.New(map[string]any{
		"order_id":       o.ID,
		"balance":        o.Balance,
		"total_cost":     o.TotalCost,
		"payment_status": o.PaymentStatus,
		"message": h.tr.Localize("OrderCommitted", map[string]any{
			"OrderID": o.ID,
			"Balance": format.AmountFor(displayTag(lang), o.Balance),
		}, lang),
	})
}

// CompletePayment: order_id. completed is false when the order was not
// awaiting payment; message then explains why.
func (h *SalesHandler) CompletePayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	orderID, err := rpcstruct.Int(req, "order_id")
	if err != nil {
		return nil, err
	}

	ok, err := h.uc.CompletePayment(ctx, sess, orderID)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}

	lang := i18n.LanguageFrom(ctx)
	messageID := "PaymentCompleted"
	if !ok {
		messageID = "PaymentState"
	}
	return rpcstruct.New(map[string]any{
		"order_id":  orderID,
		"completed": ok,
		"message":   h.tr.Localize(messageID, map[string]any{"OrderID": orderID}, lang),
	})
}

// GetOrder: order_id.
func (h *SalesHandler) GetOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	orderID, err := rpcstruct.Int(req, "order_id")
	if err != nil {
		return nil, err
	}

	detail, err := h.uc.GetOrder(ctx, sess, orderID)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	return rpcstruct.New(detail)
}

// ListOrders: payment_status, payment_method, start_date, end_date (RFC 3339),
// page, page_size.
func (h *SalesHandler) ListOrders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}

	filters := &dto.OrderFilters{
		PaymentStatus: model.PaymentStatus(strings.ToUpper(rpcstruct.String(req, "payment_status"))),
		PaymentMethod: model.PaymentMethod(strings.ToUpper(rpcstruct.String(req, "payment_method"))),
	}
	if filters.StartDate, err = rpcstruct.Time(req, "start_date"); err != nil {
		return nil, err
	}
	if filters.EndDate, err = rpcstruct.Time(req, "end_date"); err != nil {
		return nil, err
	}
	if v, ok := rpcstruct.Number(req, "page"); ok {
		filters.Page = int(v)
	}
	if v, ok := rpcstruct.Number(req, "page_size"); ok {
		filters.PageSize = int(v)
	}

	orders, total, err := h.uc.ListOrders(ctx, sess, filters)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return rpcstruct.New(map[string]any{
		"orders": orders,
		"total":  total,
	})
}

func (h *SalesHandler) cartResponse(ctx context.Context, c *cart.Cart) (*structpb.Struct, error) {
	s, err := rpcstruct.New(newCartView(c, displayTag(i18n.LanguageFrom(ctx))))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s, nil
}
