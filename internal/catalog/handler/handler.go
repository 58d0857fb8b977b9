package handler

import (
	"context"
	"encoding/base64"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fekuna/omnipos-sales-service/internal/apperror"
	"github.com/fekuna/omnipos-sales-service/internal/auth"
	"github.com/fekuna/omnipos-sales-service/internal/catalog"
	"github.com/fekuna/omnipos-sales-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/i18n"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/rpcstruct"
)

type CatalogHandler struct {
	uc     catalog.UseCase
	tr     *i18n.Translator
	logger logger.ZapLogger
}

var _ CatalogServiceServer = (*CatalogHandler)(nil)

func NewCatalogHandler(uc catalog.UseCase, tr *i18n.Translator, log logger.ZapLogger) *CatalogHandler {
	return &CatalogHandler{uc: uc, tr: tr, logger: log}
}

func session(ctx context.Context) (auth.Session, error) {
	sess, ok := auth.SessionFromContext(ctx)
	if !ok {
		return auth.Session{}, status.Error(codes.Unauthenticated, "missing operator session")
	}
	return sess, nil
}

// admin returns the session when it may change the catalog or read the stock
// ledger.
func (h *CatalogHandler) admin(ctx context.Context, op string) (auth.Session, error) {
	sess, err := session(ctx)
	if err != nil {
		return auth.Session{}, err
	}
	if sess.Role != auth.RoleAdmin && sess.Role != auth.RoleSuperAdmin {
		return auth.Session{}, h.toStatus(ctx, apperror.NotAuthorized(op))
	}
	return sess, nil
}

// CreateProduct: description.
func (h *CatalogHandler) CreateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := h.admin(ctx, "catalog.CreateProduct"); err != nil {
		return nil, err
	}

	p, err := h.uc.CreateProduct(ctx, &dto.CreateProductInput{Description: rpcstruct.String(req, "description")})
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	return rpcstruct.New(p)
}

// UpdateProductDescription: product_code, description.
func (h *CatalogHandler) UpdateProductDescription(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := h.admin(ctx, "catalog.UpdateProductDescription"); err != nil {
		return nil, err
	}
	code, err := rpcstruct.Int(req, "product_code")
	if err != nil {
		return nil, err
	}

	p, err := h.uc.UpdateProductDescription(ctx, code, rpcstruct.String(req, "description"))
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	return rpcstruct.New(p)
}

// RegisterBatch: code (generated when empty), product_code, quantity,
// selling_price, buying_price, show_price, discount_eligible, barcode_image
// (base64).
func (h *CatalogHandler) RegisterBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sess, err := h.admin(ctx, "catalog.RegisterBatch")
	if err != nil {
		return nil, err
	}
	productCode, err := rpcstruct.Int(req, "product_code")
	if err != nil {
		return nil, err
	}

	input := &dto.RegisterBatchInput{
		Code:        strings.TrimSpace(rpcstruct.String(req, "code")),
		ProductCode: productCode,
		OperatorID:  sess.OperatorID,
	}
	input.Quantity, _ = rpcstruct.Number(req, "quantity")
	input.SellingPrice, _ = rpcstruct.Number(req, "selling_price")
	input.BuyingPrice, _ = rpcstruct.Number(req, "buying_price")
	input.ShowPrice, _ = rpcstruct.Number(req, "show_price")
	input.DiscountEligible, _ = rpcstruct.Bool(req, "discount_eligible")
	if raw := rpcstruct.String(req, "barcode_image"); raw != "" {
		img, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "barcode_image must be base64")
		}
		input.BarcodeImage = img
	}

	b, err := h.uc.RegisterBatch(ctx, input)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	h.logger.Info("batch registered over gRPC", zap.String("batch_code", b.Code), zap.String("operator_id", sess.OperatorID))
	return rpcstruct.New(b)
}

// DeactivateBatch: batch_code.
func (h *CatalogHandler) DeactivateBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := h.admin(ctx, "catalog.DeactivateBatch"); err != nil {
		return nil, err
	}
	code := strings.TrimSpace(rpcstruct.String(req, "batch_code"))

	if err := h.uc.DeactivateBatch(ctx, code); err != nil {
		return nil, h.toStatus(ctx, err)
	}
	return rpcstruct.New(map[string]any{"batch_code": code, "is_active": false})
}

// GetBatch: batch_code. Open to every operator session; the till looks up
// prices with it.
func (h *CatalogHandler) GetBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := session(ctx); err != nil {
		return nil, err
	}

	b, err := h.uc.GetBatch(ctx, strings.TrimSpace(rpcstruct.String(req, "batch_code")))
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	return rpcstruct.New(b)
}

// SearchBatches: query, product_code, active_only, page, page_size.
func (h *CatalogHandler) SearchBatches(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := session(ctx); err != nil {
		return nil, err
	}

	filters := &dto.BatchFilters{Query: strings.TrimSpace(rpcstruct.String(req, "query"))}
	if _, ok := rpcstruct.Number(req, "product_code"); ok {
		code, err := rpcstruct.Int(req, "product_code")
		if err != nil {
			return nil, err
		}
		filters.ProductCode = code
	}
	filters.ActiveOnly, _ = rpcstruct.Bool(req, "active_only")
	filters.Page, filters.PageSize = paging(req)

	batches, total, err := h.uc.SearchBatches(ctx, filters)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	if batches == nil {
		batches = []model.Batch{}
	}
	return rpcstruct.New(map[string]any{"batches": batches, "total": total})
}

// ListMovements: batch_code, movement_type, start_date, end_date (RFC 3339),
// page, page_size.
func (h *CatalogHandler) ListMovements(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := h.admin(ctx, "catalog.ListMovements"); err != nil {
		return nil, err
	}

	filters := &dto.MovementFilters{
		BatchCode:    strings.TrimSpace(rpcstruct.String(req, "batch_code")),
		MovementType: strings.ToLower(strings.TrimSpace(rpcstruct.String(req, "movement_type"))),
	}
	var err error
	if filters.StartDate, err = rpcstruct.Time(req, "start_date"); err != nil {
		return nil, err
	}
	if filters.EndDate, err = rpcstruct.Time(req, "end_date"); err != nil {
		return nil, err
	}
	filters.Page, filters.PageSize = paging(req)

	movements, total, err := h.uc.ListMovements(ctx, filters)
	if err != nil {
		return nil, h.toStatus(ctx, err)
	}
	if movements == nil {
		movements = []model.StockMovement{}
	}
	return rpcstruct.New(map[string]any{"movements": movements, "total": total})
}

func paging(req *structpb.Struct) (page, pageSize int) {
	if v, ok := rpcstruct.Number(req, "page"); ok {
		page = int(v)
	}
	if v, ok := rpcstruct.Number(req, "page_size"); ok {
		pageSize = int(v)
	}
	return page, pageSize
}
