package returns

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/returns/dto"
)

type UseCase interface {
	RecordReturn(ctx context.Context, input *dto.RecordReturnInput) (*model.ReturnOrder, error)
	ListReturns(ctx context.Context, filters *dto.ReturnFilters) ([]model.ReturnOrder, int, error)

	TotalRefunds(ctx context.Context, from, to time.Time) (float64, error)
	RefundsByPeriod(ctx context.Context, from, to time.Time, period dto.Period) ([]dto.PeriodTotal, error)
	NetRevenue(ctx context.Context, from, to time.Time) (*dto.NetRevenue, error)
}
