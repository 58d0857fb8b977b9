package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/apperror"
	"github.com/fekuna/omnipos-sales-service/internal/catalog"
	"github.com/fekuna/omnipos-sales-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/search"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const batchIndexMapping = `{
	"mappings": {
		"properties": {
			"code": { "type": "keyword" },
			"product_code": { "type": "long" },
			"description": { "type": "text" },
			"selling_price": { "type": "double" },
			"is_active": { "type": "boolean" },
			"created_at": { "type": "date" }
		}
	}
}`

// barcodeAttempts bounds how many generated codes are tried before giving up.
const barcodeAttempts = 5

type catalogUseCase struct {
	repo   catalog.Repository
	uow    catalog.UnitOfWork
	es     *search.Client
	index  string
	logger logger.ZapLogger
	now    func() time.Time
}

// NewCatalogUseCase wires the catalog. es may be nil, in which case search
// runs against the repository only.
func NewCatalogUseCase(repo catalog.Repository, uow catalog.UnitOfWork, es *search.Client, index string, log logger.ZapLogger) catalog.UseCase {
	if index == "" {
		index = "batches"
	}
	return &catalogUseCase{
		repo:   repo,
		uow:    uow,
		es:     es,
		index:  index,
		logger: log,
		now:    time.Now,
	}
}

// EnsureIndex creates the batch search index. Called once at startup.
func EnsureIndex(ctx context.Context, es *search.Client, index string) error {
	if es == nil {
		return nil
	}
	return es.CreateIndex(ctx, index, batchIndexMapping)
}

func (uc *catalogUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	const op = "catalog.CreateProduct"

	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperror.Validation(op, "description", "description is required")
	}

	now := uc.now()
	p := &model.Product{Description: description, CreatedAt: now, UpdatedAt: now}
	if err := uc.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (uc *catalogUseCase) UpdateProductDescription(ctx context.Context, code int64, description string) (*model.Product, error) {
	const op = "catalog.UpdateProductDescription"

	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperror.Validation(op, "description", "description is required")
	}

	ok, err := uc.repo.UpdateProductDescription(ctx, code, description, uc.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, apperror.NotFound(op, fmt.Sprintf("product %d", code))
	}

	p, err := uc.repo.FindProduct(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if p == nil {
		return nil, apperror.NotFound(op, fmt.Sprintf("product %d", code))
	}

	go uc.reindexProduct(context.Background(), code)

	return p, nil
}

func (uc *catalogUseCase) RegisterBatch(ctx context.Context, input *dto.RegisterBatchInput) (*model.Batch, error) {
	const op = "catalog.RegisterBatch"

	if err := validateBatchInput(op, input); err != nil {
		return nil, err
	}

	product, err := uc.repo.FindProduct(ctx, input.ProductCode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if product == nil {
		return nil, apperror.NotFound(op, fmt.Sprintf("product %d", input.ProductCode))
	}

	code := strings.TrimSpace(input.Code)
	if code == "" {
		code, err = uc.generateBarcode(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	now := uc.now()
	b := &model.Batch{
		Code:             code,
		ProductCode:      input.ProductCode,
		Quantity:         input.Quantity,
		SellingPrice:     input.SellingPrice,
		BuyingPrice:      input.BuyingPrice,
		ShowPrice:        input.ShowPrice,
		DiscountEligible: input.DiscountEligible,
		BarcodeImage:     input.BarcodeImage,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = uc.uow.RunInTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.CreateBatch(ctx, b); err != nil {
			return err
		}
		return uc.repo.LogMovement(ctx, newMovement(b.Code, model.MovementTypeOpening, input.Quantity, "", "", input.OperatorID, now))
	})
	if err != nil {
		if errors.Is(err, catalog.ErrDuplicate) {
			return nil, apperror.Validation(op, "code", fmt.Sprintf("batch code %s already exists", code))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	b.Description = product.Description

	uc.logger.Info("batch registered",
		zap.String("batch_code", b.Code),
		zap.Int64("product_code", b.ProductCode),
		zap.Float64("quantity", b.Quantity),
	)

	go uc.syncToElastic(context.Background(), b)

	return b, nil
}

func (uc *catalogUseCase) DeactivateBatch(ctx context.Context, code string) error {
	const op = "catalog.DeactivateBatch"

	ok, err := uc.repo.SetBatchActive(ctx, code, false, uc.now())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return apperror.NotFound(op, "batch "+code)
	}

	if b, err := uc.repo.FindBatch(ctx, code); err == nil && b != nil {
		go uc.syncToElastic(context.Background(), b)
	}
	return nil
}

func (uc *catalogUseCase) GetBatch(ctx context.Context, code string) (*model.Batch, error) {
	const op = "catalog.GetBatch"

	b, err := uc.repo.FindBatch(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if b == nil {
		return nil, apperror.NotFound(op, "batch "+code)
	}
	return b, nil
}

func (uc *catalogUseCase) SearchBatches(ctx context.Context, filters *dto.BatchFilters) ([]model.Batch, int, error) {
	if filters.Query != "" && uc.es != nil {
		items, total, err := uc.searchElastic(ctx, filters)
		if err == nil {
			return items, total, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}
	return uc.repo.FindBatches(ctx, filters)
}

// DecrementStock lowers a batch by quantity and records a sale movement. It
// joins the caller's transaction when there is one.
func (uc *catalogUseCase) DecrementStock(ctx context.Context, input *dto.DecrementStockInput) error {
	const op = "catalog.DecrementStock"

	if input.BatchCode == "" {
		return apperror.Validation(op, "batch_code", "batch code is required")
	}
	if math.IsNaN(input.Quantity) || math.IsInf(input.Quantity, 0) || input.Quantity <= 0 {
		return apperror.Validation(op, "quantity", "quantity must be positive")
	}
	quantity := model.RoundQuantity(input.Quantity)
	if quantity <= 0 {
		return apperror.Validation(op, "quantity", "quantity is below the stocked precision")
	}

	now := uc.now()
	ok, err := uc.repo.DecrementStock(ctx, input.BatchCode, quantity, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		available := 0.0
		b, err := uc.repo.FindBatch(ctx, input.BatchCode)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if b != nil && b.IsActive {
			available = b.Quantity
		}
		return apperror.InsufficientStock(op, input.BatchCode, quantity, available)
	}

	movement := newMovement(input.BatchCode, model.MovementTypeSale, -quantity,
		input.ReferenceType, input.ReferenceID, input.OperatorID, now)
	if err := uc.repo.LogMovement(ctx, movement); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (uc *catalogUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}

func (uc *catalogUseCase) searchElastic(ctx context.Context, filters *dto.BatchFilters) ([]model.Batch, int, error) {
	must := []map[string]interface{}{
		{
			"query_string": map[string]interface{}{
				"query":  fmt.Sprintf("*%s*", filters.Query),
				"fields": []string{"code^3", "description"},
			},
		},
	}
	if filters.ProductCode != 0 {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{"product_code": filters.ProductCode}})
	}
	if filters.ActiveOnly {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{"is_active": true}})
	}

	q := map[string]interface{}{
		"query": map[string]interface{}{"bool": map[string]interface{}{"must": must}},
		"_source": []string{"code"},
	}
	if filters.PageSize > 0 {
		q["size"] = filters.PageSize
		q["from"] = (max(filters.Page, 1) - 1) * filters.PageSize
	}

	res, err := uc.es.Search(ctx, uc.index, q)
	if err != nil {
		return nil, 0, err
	}

	// The index only finds codes; quantities always come from the store.
	items := make([]model.Batch, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		b, err := uc.repo.FindBatch(ctx, hit.ID)
		if err != nil {
			return nil, 0, err
		}
		if b != nil {
			items = append(items, *b)
		}
	}
	return items, res.Hits.Total.Value, nil
}

func (uc *catalogUseCase) syncToElastic(ctx context.Context, b *model.Batch) {
	if uc.es == nil {
		return
	}
	if err := uc.es.Index(ctx, uc.index, b.Code, b); err != nil {
		uc.logger.Error("failed to index batch", zap.String("batch_code", b.Code), zap.Error(err))
	}
}

func (uc *catalogUseCase) reindexProduct(ctx context.Context, productCode int64) {
	if uc.es == nil {
		return
	}
	batches, _, err := uc.repo.FindBatches(ctx, &dto.BatchFilters{ProductCode: productCode})
	if err != nil {
		uc.logger.Error("failed to load batches for reindex", zap.Int64("product_code", productCode), zap.Error(err))
		return
	}
	for i := range batches {
		uc.syncToElastic(ctx, &batches[i])
	}
}

func (uc *catalogUseCase) generateBarcode(ctx context.Context) (string, error) {
	for range barcodeAttempts {
		code := NewEAN13()
		existing, err := uc.repo.FindBatch(ctx, code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", errors.New("could not generate a free batch code")
}

// NewEAN13 returns a random 13-digit code whose last digit is the EAN-13
// check digit.
func NewEAN13() string {
	var digits [13]byte
	digits[0] = byte('1' + rand.IntN(9))
	for i := 1; i < 12; i++ {
		digits[i] = byte('0' + rand.IntN(10))
	}

	sum := 0
	for i := 0; i < 12; i++ {
		d := int(digits[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	digits[12] = byte('0' + (10-sum%10)%10)
	return string(digits[:])
}

func validateBatchInput(op string, in *dto.RegisterBatchInput) error {
	values := map[string]float64{
		"quantity":      in.Quantity,
		"selling_price": in.SellingPrice,
		"buying_price":  in.BuyingPrice,
		"show_price":    in.ShowPrice,
	}
	for field, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return apperror.Validation(op, field, field+" must be a non-negative number")
		}
	}
	return nil
}

func newMovement(batchCode, movementType string, change float64, refType, refID, operatorID string, at time.Time) *model.StockMovement {
	m := &model.StockMovement{
		ID:             uuid.New().String(),
		BatchCode:      batchCode,
		MovementType:   movementType,
		QuantityChange: change,
		CreatedAt:      at,
	}
	if refType != "" {
		m.ReferenceType = &refType
	}
	if refID != "" {
		m.ReferenceID = &refID
	}
	if operatorID != "" {
		m.CreatedBy = &operatorID
	}
	return m
}
