package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-sales-service/internal/apperror"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-sales-service/internal/returns/dto"
	"github.com/fekuna/omnipos-sales-service/internal/returns/repository"
)

type stubRevenue struct {
	gross float64
	calls int
	// during runs inside SumRevenue, after gross has been read.
	during func()
}

func (s *stubRevenue) SumRevenue(context.Context, time.Time, time.Time) (float64, error) {
	s.calls++
	gross := s.gross
	if s.during != nil {
		during := s.during
		s.during = nil
		during()
	}
	return gross, nil
}

var (
	oct1 = time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	nov1 = time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
)

func seed(t *testing.T, uc interface {
	RecordReturn(context.Context, *dto.RecordReturnInput) (*model.ReturnOrder, error)
}) {
	t.Helper()
	ctx := context.Background()
	inputs := []dto.RecordReturnInput{
		{ID: "R1", OrderID: 1, RefundAmount: 50, Status: model.ReturnStatusApproved, CreatedAt: oct1.Add(2 * time.Hour)},
		{ID: "R2", OrderID: 2, RefundAmount: 30, Status: model.ReturnStatusCompleted, CreatedAt: oct1.Add(26 * time.Hour)},
		{ID: "R3", OrderID: 3, RefundAmount: 999, Status: model.ReturnStatusRejected, CreatedAt: oct1.Add(3 * time.Hour)},
		{ID: "R4", OrderID: 4, RefundAmount: 70, Status: model.ReturnStatusPending, CreatedAt: oct1.Add(4 * time.Hour)},
		{ID: "R5", OrderID: 99, RefundAmount: 20, Status: model.ReturnStatusApproved, CreatedAt: nov1.Add(time.Hour)},
	}
	for i := range inputs {
		_, err := uc.RecordReturn(ctx, &inputs[i])
		require.NoError(t, err)
	}
}

func TestTotalRefundsCountsOnlyApprovedAndCompleted(t *testing.T) {
	uc := NewReturnsUseCase(repository.NewMemoryRepository(), &stubRevenue{}, cache.NewLocalCache(), time.Minute, logger.NewNop())
	seed(t, uc)

	total, err := uc.TotalRefunds(context.Background(), oct1, nov1)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, total, 1e-9)
}

func TestRefundsByPeriod(t *testing.T) {
	uc := NewReturnsUseCase(repository.NewMemoryRepository(), &stubRevenue{}, nil, 0, logger.NewNop())
	seed(t, uc)
	ctx := context.Background()

	days, err := uc.RefundsByPeriod(ctx, oct1, nov1.AddDate(0, 1, 0), dto.PeriodDay)
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "2026-10-01", days[0].Period)
	assert.InDelta(t, 50.0, days[0].Total, 1e-9)
	assert.Equal(t, "2026-10-02", days[1].Period)
	assert.Equal(t, "2026-11-01", days[2].Period)

	months, err := uc.RefundsByPeriod(ctx, oct1, nov1.AddDate(0, 1, 0), dto.PeriodMonth)
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, "2026-10", months[0].Period)
	assert.InDelta(t, 80.0, months[0].Total, 1e-9)
	assert.InDelta(t, 20.0, months[1].Total, 1e-9)

	_, err = uc.RefundsByPeriod(ctx, oct1, nov1, "week")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestNetRevenueIsCachedUntilReturnRecorded(t *testing.T) {
	rev := &stubRevenue{gross: 1000}
	uc := NewReturnsUseCase(repository.NewMemoryRepository(), rev, cache.NewLocalCache(), time.Minute, logger.NewNop())
	seed(t, uc)
	ctx := context.Background()

	net, err := uc.NetRevenue(ctx, oct1, nov1)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, net.Gross, 1e-9)
	assert.InDelta(t, 80.0, net.Refunds, 1e-9)
	assert.InDelta(t, 920.0, net.Net, 1e-9)

	_, err = uc.NetRevenue(ctx, oct1, nov1)
	require.NoError(t, err)
	assert.Equal(t, 1, rev.calls)

	// approving the pending return invalidates the cached figure
	_, err = uc.RecordReturn(ctx, &dto.RecordReturnInput{ID: "R4", OrderID: 4, RefundAmount: 70, Status: "approved", CreatedAt: oct1.Add(4 * time.Hour)})
	require.NoError(t, err)

	net, err = uc.NetRevenue(ctx, oct1, nov1)
	require.NoError(t, err)
	assert.Equal(t, 2, rev.calls)
	assert.InDelta(t, 850.0, net.Net, 1e-9)
}

func TestNetRevenueComputedAcrossInvalidationIsNotServed(t *testing.T) {
	rev := &stubRevenue{gross: 1000}
	uc := NewReturnsUseCase(repository.NewMemoryRepository(), rev, cache.NewLocalCache(), time.Minute, logger.NewNop())
	ctx := context.Background()

	// a sale commits and invalidates reports while the first figure is loading
	rev.during = func() {
		rev.gross = 1500
		_, err := uc.RecordReturn(ctx, &dto.RecordReturnInput{ID: "R1", OrderID: 1, RefundAmount: 50, Status: model.ReturnStatusApproved, CreatedAt: oct1.Add(time.Hour)})
		require.NoError(t, err)
	}

	net, err := uc.NetRevenue(ctx, oct1, nov1)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, net.Gross, 1e-9)

	net, err = uc.NetRevenue(ctx, oct1, nov1)
	require.NoError(t, err)
	assert.Equal(t, 2, rev.calls)
	assert.InDelta(t, 1500.0, net.Gross, 1e-9)
	assert.InDelta(t, 1450.0, net.Net, 1e-9)

	_, err = uc.NetRevenue(ctx, oct1, nov1)
	require.NoError(t, err)
	assert.Equal(t, 2, rev.calls)
}

func TestRecordReturnDefaultsAndValidation(t *testing.T) {
	uc := NewReturnsUseCase(repository.NewMemoryRepository(), &stubRevenue{}, nil, 0, logger.NewNop())
	ctx := context.Background()

	ret, err := uc.RecordReturn(ctx, &dto.RecordReturnInput{OrderID: 12345, RefundAmount: 10, CustomerEmail: " a@b.c "})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ret.ID, "RET-"))
	assert.Equal(t, model.ReturnStatusPending, ret.Status)
	require.NotNil(t, ret.CustomerEmail)
	assert.Equal(t, "a@b.c", *ret.CustomerEmail)
	assert.Nil(t, ret.CustomerName)
	assert.False(t, ret.CreatedAt.IsZero())

	_, err = uc.RecordReturn(ctx, &dto.RecordReturnInput{OrderID: 1, Status: "LOST"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = uc.RecordReturn(ctx, &dto.RecordReturnInput{OrderID: 0})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = uc.RecordReturn(ctx, &dto.RecordReturnInput{OrderID: 1, RefundAmount: -5})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	items, total, err := uc.ListReturns(ctx, &dto.ReturnFilters{OrderID: 12345})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, ret.ID, items[0].ID)
}

func TestReportRangeValidation(t *testing.T) {
	uc := NewReturnsUseCase(repository.NewMemoryRepository(), &stubRevenue{}, nil, 0, logger.NewNop())
	ctx := context.Background()

	_, err := uc.TotalRefunds(ctx, nov1, oct1)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = uc.NetRevenue(ctx, time.Time{}, oct1)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
