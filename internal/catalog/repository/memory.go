package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/catalog"
	"github.com/fekuna/omnipos-sales-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/memtx"
)

// MemoryRepository keeps the catalog in process. Writes made inside a
// memtx.UnitOfWork transaction are undone when it fails.
type MemoryRepository struct {
	mu        sync.RWMutex
	products  map[int64]model.Product
	batches   map[string]model.Batch
	movements []model.StockMovement
	nextCode  int64
}

var _ catalog.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products: make(map[int64]model.Product),
		batches:  make(map[string]model.Batch),
	}
}

func (r *MemoryRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextCode++
	p.Code = r.nextCode
	r.products[p.Code] = *p

	code := p.Code
	memtx.OnRollback(ctx, func() {
		r.mu.Lock()
		delete(r.products, code)
		r.mu.Unlock()
	})
	return nil
}

func (r *MemoryRepository) FindProduct(_ context.Context, code int64) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[code]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *MemoryRepository) UpdateProductDescription(ctx context.Context, code int64, description string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[code]
	if !ok {
		return false, nil
	}
	prev := p
	p.Description = description
	p.UpdatedAt = at
	r.products[code] = p

	memtx.OnRollback(ctx, func() {
		r.mu.Lock()
		r.products[code] = prev
		r.mu.Unlock()
	})
	return true, nil
}

func (r *MemoryRepository) CreateBatch(ctx context.Context, b *model.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.batches[b.Code]; exists {
		return catalog.ErrDuplicate
	}
	stored := *b
	stored.Description = ""
	r.batches[b.Code] = stored

	code := b.Code
	memtx.OnRollback(ctx, func() {
		r.mu.Lock()
		delete(r.batches, code)
		r.mu.Unlock()
	})
	return nil
}

func (r *MemoryRepository) FindBatch(_ context.Context, code string) (*model.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.batches[code]
	if !ok {
		return nil, nil
	}
	b = r.withDescription(b)
	return &b, nil
}

func (r *MemoryRepository) FindBatches(_ context.Context, f *dto.BatchFilters) ([]model.Batch, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := strings.ToLower(f.Query)
	var items []model.Batch
	for _, b := range r.batches {
		if f.ProductCode != 0 && b.ProductCode != f.ProductCode {
			continue
		}
		if f.ActiveOnly && !b.IsActive {
			continue
		}
		b = r.withDescription(b)
		if query != "" &&
			!strings.Contains(strings.ToLower(b.Code), query) &&
			!strings.Contains(strings.ToLower(b.Description), query) {
			continue
		}
		items = append(items, b)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Description != items[j].Description {
			return items[i].Description < items[j].Description
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	total := len(items)
	return paginate(items, f.Page, f.PageSize), total, nil
}

func (r *MemoryRepository) SetBatchActive(ctx context.Context, code string, active bool, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.batches[code]
	if !ok {
		return false, nil
	}
	prev := b
	b.IsActive = active
	b.UpdatedAt = at
	r.batches[code] = b

	memtx.OnRollback(ctx, func() {
		r.mu.Lock()
		r.batches[code] = prev
		r.mu.Unlock()
	})
	return true, nil
}

func (r *MemoryRepository) DecrementStock(ctx context.Context, batchCode string, quantity float64, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	quantity = model.RoundQuantity(quantity)
	b, ok := r.batches[batchCode]
	if !ok || !b.IsActive || b.Quantity+model.QuantityEpsilon < quantity {
		return false, nil
	}
	prev := b
	b.Quantity = model.RoundQuantity(b.Quantity - quantity)
	if b.Quantity < 0 {
		b.Quantity = 0
	}
	b.UpdatedAt = at
	r.batches[batchCode] = b

	memtx.OnRollback(ctx, func() {
		r.mu.Lock()
		cur := r.batches[batchCode]
		cur.Quantity = prev.Quantity
		cur.UpdatedAt = prev.UpdatedAt
		r.batches[batchCode] = cur
		r.mu.Unlock()
	})
	return true, nil
}

func (r *MemoryRepository) LogMovement(ctx context.Context, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.movements = append(r.movements, *m)

	id := m.ID
	memtx.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i := len(r.movements) - 1; i >= 0; i-- {
			if r.movements[i].ID == id {
				r.movements = append(r.movements[:i], r.movements[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r *MemoryRepository) ListMovements(_ context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []model.StockMovement
	for _, m := range r.movements {
		if f.BatchCode != "" && m.BatchCode != f.BatchCode {
			continue
		}
		if f.MovementType != "" && m.MovementType != f.MovementType {
			continue
		}
		if f.StartDate != nil && m.CreatedAt.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && !m.CreatedAt.Before(*f.EndDate) {
			continue
		}
		items = append(items, m)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	total := len(items)
	return paginate(items, f.Page, f.PageSize), total, nil
}

func (r *MemoryRepository) withDescription(b model.Batch) model.Batch {
	if p, ok := r.products[b.ProductCode]; ok {
		b.Description = p.Description
	}
	return b
}

func paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	start := (max(page, 1) - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}
