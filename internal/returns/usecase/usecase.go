package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-sales-service/internal/apperror"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-sales-service/internal/returns"
	"github.com/fekuna/omnipos-sales-service/internal/returns/dto"
)

const defaultReportTTL = 5 * time.Minute

type returnsUseCase struct {
	repo     returns.Repository
	revenue  returns.RevenueReader
	cache    cache.Cache
	cacheTTL time.Duration
	logger   logger.ZapLogger
	now      func() time.Time
}

func NewReturnsUseCase(repo returns.Repository, revenue returns.RevenueReader, c cache.Cache, ttl time.Duration, log logger.ZapLogger) returns.UseCase {
	if c == nil {
		c = cache.NewLocalCache()
	}
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	return &returnsUseCase{
		repo:     repo,
		revenue:  revenue,
		cache:    c,
		cacheTTL: ttl,
		logger:   log,
		now:      time.Now,
	}
}

func (uc *returnsUseCase) RecordReturn(ctx context.Context, input *dto.RecordReturnInput) (*model.ReturnOrder, error) {
	const op = "returns.RecordReturn"

	if input.OrderID <= 0 {
		return nil, apperror.Validation(op, "order_id", "order id is required")
	}
	status := model.ReturnStatus(strings.ToUpper(strings.TrimSpace(string(input.Status))))
	if status == "" {
		status = model.ReturnStatusPending
	}
	if !status.Valid() {
		return nil, apperror.Validation(op, "status", fmt.Sprintf("unknown return status %q", input.Status))
	}
	for field, v := range map[string]float64{"original_amount": input.OriginalAmount, "refund_amount": input.RefundAmount} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, apperror.Validation(op, field, field+" must be a non-negative number")
		}
	}

	now := uc.now()
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = "RET-" + ulid.Make().String()
	}
	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	ret := &model.ReturnOrder{
		ID:                id,
		OrderID:           input.OrderID,
		CustomerEmail:     optional(input.CustomerEmail),
		CustomerName:      optional(input.CustomerName),
		OriginalAmount:    input.OriginalAmount,
		RefundAmount:      input.RefundAmount,
		Reason:            input.Reason,
		Status:            status,
		ProcessedBy:       optional(input.ProcessedBy),
		InventoryRestored: input.InventoryRestored,
		CreatedAt:         createdAt,
		UpdatedAt:         now,
	}
	if err := uc.repo.Upsert(ctx, ret); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := uc.cache.DeletePrefix(ctx, cache.ReportKeyPrefix); err != nil {
		uc.logger.Warn("failed to invalidate report cache", zap.Error(err))
	}
	return ret, nil
}

func (uc *returnsUseCase) ListReturns(ctx context.Context, filters *dto.ReturnFilters) ([]model.ReturnOrder, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *returnsUseCase) TotalRefunds(ctx context.Context, from, to time.Time) (float64, error) {
	const op = "returns.TotalRefunds"

	if err := validRange(op, from, to); err != nil {
		return 0, err
	}

	var total float64
	err := uc.cached(ctx, reportKey("refunds", from, to), &total, func() error {
		var err error
		total, err = uc.repo.SumRefunds(ctx, from, to, model.RefundStatuses)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

func (uc *returnsUseCase) RefundsByPeriod(ctx context.Context, from, to time.Time, period dto.Period) ([]dto.PeriodTotal, error) {
	const op = "returns.RefundsByPeriod"

	if err := validRange(op, from, to); err != nil {
		return nil, err
	}
	if !period.Valid() {
		return nil, apperror.Validation(op, "period", "period must be day or month")
	}

	var totals []dto.PeriodTotal
	err := uc.cached(ctx, reportKey("refunds:"+string(period), from, to), &totals, func() error {
		var err error
		totals, err = uc.repo.SumRefundsByPeriod(ctx, from, to, period, model.RefundStatuses)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if totals == nil {
		totals = []dto.PeriodTotal{}
	}
	return totals, nil
}

// NetRevenue is gross sales of every order issued in [from, to) minus the
// approved and completed refunds created in the same range.
func (uc *returnsUseCase) NetRevenue(ctx context.Context, from, to time.Time) (*dto.NetRevenue, error) {
	const op = "returns.NetRevenue"

	if err := validRange(op, from, to); err != nil {
		return nil, err
	}

	var result dto.NetRevenue
	err := uc.cached(ctx, reportKey("net", from, to), &result, func() error {
		gross, err := uc.revenue.SumRevenue(ctx, from, to)
		if err != nil {
			return err
		}
		refunds, err := uc.repo.SumRefunds(ctx, from, to, model.RefundStatuses)
		if err != nil {
			return err
		}
		result = dto.NetRevenue{From: from, To: to, Gross: gross, Refunds: refunds, Net: gross - refunds}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// reportVersionKey holds the generation token every report key embeds.
// Invalidation deletes it with the reports, so a figure computed before an
// invalidation is stored under a generation no later read looks up.
const reportVersionKey = cache.ReportKeyPrefix + "version"

// cached fills dest from the cache, or runs load and stores dest. Cache
// failures only cost a recomputation.
func (uc *returnsUseCase) cached(ctx context.Context, name string, dest any, load func() error) error {
	key := cache.ReportKeyPrefix + uc.reportVersion(ctx) + ":" + name
	err := uc.cache.GetJSON(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		uc.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
	}

	if err := load(); err != nil {
		return err
	}
	if err := uc.cache.SetJSON(ctx, key, dest, uc.cacheTTL); err != nil {
		uc.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// reportVersion returns the current report generation, starting a new one
// when the last was invalidated.
func (uc *returnsUseCase) reportVersion(ctx context.Context) string {
	var version string
	err := uc.cache.GetJSON(ctx, reportVersionKey, &version)
	if err == nil && version != "" {
		return version
	}
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		uc.logger.Warn("report version read failed", zap.Error(err))
	}

	version = ulid.Make().String()
	if err := uc.cache.SetJSON(ctx, reportVersionKey, version, 0); err != nil {
		uc.logger.Warn("report version write failed", zap.Error(err))
	}
	return version
}

func reportKey(name string, from, to time.Time) string {
	return fmt.Sprintf("%s:%d:%d", name, from.Unix(), to.Unix())
}

func validRange(op string, from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return apperror.Validation(op, "range", "from and to are required")
	}
	if !from.Before(to) {
		return apperror.Validation(op, "range", "from must be before to")
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
