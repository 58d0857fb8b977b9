package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/returns"
	"github.com/fekuna/omnipos-sales-service/internal/returns/dto"
)

type MemoryRepository struct {
	mu      sync.RWMutex
	returns map[string]model.ReturnOrder
}

var _ returns.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{returns: make(map[string]model.ReturnOrder)}
}

func (r *MemoryRepository) Upsert(_ context.Context, ret *model.ReturnOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.returns[ret.ID]; ok {
		existing.RefundAmount = ret.RefundAmount
		existing.Reason = ret.Reason
		existing.Status = ret.Status
		existing.ProcessedBy = ret.ProcessedBy
		existing.InventoryRestored = ret.InventoryRestored
		existing.UpdatedAt = ret.UpdatedAt
		r.returns[ret.ID] = existing
		return nil
	}
	r.returns[ret.ID] = *ret
	return nil
}

func (r *MemoryRepository) FindAll(_ context.Context, f *dto.ReturnFilters) ([]model.ReturnOrder, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.ReturnOrder
	for _, ret := range r.returns {
		if f.Status != "" && ret.Status != f.Status {
			continue
		}
		if f.OrderID != 0 && ret.OrderID != f.OrderID {
			continue
		}
		if f.StartDate != nil && ret.CreatedAt.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && !ret.CreatedAt.Before(*f.EndDate) {
			continue
		}
		out = append(out, ret)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := len(out)
	if f.PageSize > 0 {
		start := (max(f.Page, 1) - 1) * f.PageSize
		if start >= len(out) {
			return []model.ReturnOrder{}, total, nil
		}
		out = out[start:min(start+f.PageSize, len(out))]
	}
	return out, total, nil
}

func (r *MemoryRepository) SumRefunds(_ context.Context, from, to time.Time, statuses []model.ReturnStatus) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total float64
	for _, ret := range r.returns {
		if counts(ret, from, to, statuses) {
			total += ret.RefundAmount
		}
	}
	return total, nil
}

func (r *MemoryRepository) SumRefundsByPeriod(_ context.Context, from, to time.Time, period dto.Period, statuses []model.ReturnStatus) ([]dto.PeriodTotal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	buckets := map[time.Time]float64{}
	for _, ret := range r.returns {
		if counts(ret, from, to, statuses) {
			buckets[period.Truncate(ret.CreatedAt)] += ret.RefundAmount
		}
	}

	out := make([]dto.PeriodTotal, 0, len(buckets))
	for start, total := range buckets {
		out = append(out, dto.PeriodTotal{Period: period.Label(start), Start: start, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func counts(ret model.ReturnOrder, from, to time.Time, statuses []model.ReturnStatus) bool {
	return !ret.CreatedAt.Before(from) && ret.CreatedAt.Before(to) && slices.Contains(statuses, ret.Status)
}
