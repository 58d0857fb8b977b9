package returns

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/returns/dto"
)

type Repository interface {
	// Upsert stores a return, replacing the mutable fields of an existing one.
	Upsert(ctx context.Context, r *model.ReturnOrder) error
	FindAll(ctx context.Context, filters *dto.ReturnFilters) ([]model.ReturnOrder, int, error)

	// SumRefunds totals refund_amount of returns created in [from, to) whose
	// status is one of statuses.
	SumRefunds(ctx context.Context, from, to time.Time, statuses []model.ReturnStatus) (float64, error)
	SumRefundsByPeriod(ctx context.Context, from, to time.Time, period dto.Period, statuses []model.ReturnStatus) ([]dto.PeriodTotal, error)
}

// RevenueReader supplies gross sales for net revenue.
type RevenueReader interface {
	SumRevenue(ctx context.Context, from, to time.Time) (float64, error)
}
