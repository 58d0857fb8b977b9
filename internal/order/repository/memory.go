package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/order"
	"github.com/fekuna/omnipos-sales-service/internal/order/dto"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/memtx"
)

type MemoryRepository struct {
	mu     sync.RWMutex
	orders map[int64]model.Order
	items  map[int64][]model.OrderItem
	nextID int64
}

var _ order.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders: make(map[int64]model.Order),
		items:  make(map[int64][]model.OrderItem),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, o *model.Order, items []model.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	o.ID = r.nextID
	for i := range items {
		items[i].OrderID = o.ID
	}
	r.orders[o.ID] = *o
	r.items[o.ID] = slices.Clone(items)

	id := o.ID
	memtx.OnRollback(ctx, func() {
		r.mu.Lock()
		delete(r.orders, id)
		delete(r.items, id)
		r.mu.Unlock()
	})
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id int64) (*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *MemoryRepository) ListItems(_ context.Context, orderID int64) ([]model.OrderItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.items[orderID]), nil
}

func (r *MemoryRepository) FindAll(_ context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Order
	for _, o := range r.orders {
		if len(f.Classes) > 0 && !slices.Contains(f.Classes, o.OrderClass) {
			continue
		}
		if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
			continue
		}
		if f.PaymentMethod != "" && o.PaymentMethod != f.PaymentMethod {
			continue
		}
		if f.StartDate != nil && o.IssuedAt.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && !o.IssuedAt.Before(*f.EndDate) {
			continue
		}
		out = append(out, o)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].IssuedAt.After(out[j].IssuedAt)
		}
		return out[i].ID > out[j].ID
	})

	total := len(out)
	if f.PageSize > 0 {
		start := (max(f.Page, 1) - 1) * f.PageSize
		if start >= len(out) {
			return []model.Order{}, total, nil
		}
		out = out[start:min(start+f.PageSize, len(out))]
	}
	return out, total, nil
}

func (r *MemoryRepository) MarkPaid(ctx context.Context, id int64, classes []model.OrderClass, paidBy string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok || o.PaymentStatus != model.PaymentStatusPending || !slices.Contains(classes, o.OrderClass) {
		return false, nil
	}
	prev := o
	o.PaymentStatus = model.PaymentStatusPaid
	o.PaidAt = &at
	o.PaidBy = &paidBy
	r.orders[id] = o

	memtx.OnRollback(ctx, func() {
		r.mu.Lock()
		r.orders[id] = prev
		r.mu.Unlock()
	})
	return true, nil
}

func (r *MemoryRepository) SumRevenue(_ context.Context, from, to time.Time) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total float64
	for _, o := range r.orders {
		if !o.IssuedAt.Before(from) && o.IssuedAt.Before(to) {
			total += o.TotalCost
		}
	}
	return total, nil
}
