// Package cart holds the in-memory line items an operator assembles before a
// checkout. A cart is never persisted; it is cleared on commit or discarded
// with its session.
package cart

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/fekuna/omnipos-sales-service/internal/apperror"
	"github.com/fekuna/omnipos-sales-service/internal/model"
)

// BatchFinder is the read-only catalog lookup the cart validates against.
type BatchFinder interface {
	GetBatch(ctx context.Context, code string) (*model.Batch, error)
}

type Line struct {
	BatchCode   string  `json:"batch_code"`
	ProductCode int64   `json:"product_code"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price"`
	Discount    float64 `json:"discount"` // per unit
	Quantity    float64 `json:"quantity"`
}

// EffectivePrice is the unit price after discount, never below zero.
func (l Line) EffectivePrice() float64 {
	return math.Max(0, l.UnitPrice-l.Discount)
}

func (l Line) Total() float64 {
	return l.Quantity * l.EffectivePrice()
}

func (l Line) TotalDiscount() float64 {
	return l.Discount * l.Quantity
}

type Cart struct {
	mu     sync.Mutex
	finder BatchFinder
	lines  []Line
}

func New(finder BatchFinder) *Cart {
	return &Cart{finder: finder}
}

// AddLine validates and inserts a line, or merges quantity into the existing
// line for the same batch. A merged line keeps its original price and
// discount. On any error the cart is left unchanged.
func (c *Cart) AddLine(ctx context.Context, batchCode string, quantity, unitPrice, discount float64) error {
	const op = "cart.AddLine"

	if batchCode == "" {
		return apperror.Validation(op, "batch_code", "batch code is required")
	}
	if !finite(quantity) || !finite(unitPrice) || !finite(discount) {
		return apperror.Validation(op, "amount", "quantity, price and discount must be numbers")
	}
	quantity = model.RoundQuantity(quantity)
	if quantity <= 0 {
		return apperror.Validation(op, "quantity", "quantity must be greater than zero")
	}
	if unitPrice < 0 {
		return apperror.Validation(op, "unit_price", "unit price must not be negative")
	}
	if discount < 0 {
		return apperror.Validation(op, "discount", "discount must not be negative")
	}
	if discount > unitPrice {
		return apperror.Validation(op, "discount", "discount must not exceed the unit price")
	}

	batch, err := c.finder.GetBatch(ctx, batchCode)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Validation(op, "batch_code", "unknown batch "+batchCode)
		}
		return err
	}
	if !batch.IsActive {
		return apperror.Validation(op, "batch_code", "batch "+batchCode+" is no longer sold")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(batchCode)
	prospective := quantity
	if idx >= 0 {
		prospective = model.RoundQuantity(prospective + c.lines[idx].Quantity)
	}
	if prospective > batch.Quantity+model.QuantityEpsilon {
		return apperror.InsufficientStock(op, batchCode, prospective, batch.Quantity)
	}

	if idx >= 0 {
		c.lines[idx].Quantity = prospective
		return nil
	}
	c.lines = append(c.lines, Line{
		BatchCode:   batchCode,
		ProductCode: batch.ProductCode,
		Description: batch.Description,
		UnitPrice:   unitPrice,
		Discount:    discount,
		Quantity:    quantity,
	})
	return nil
}

// RemoveLine drops the line for batchCode if there is one.
func (c *Cart) RemoveLine(batchCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx := c.indexOf(batchCode); idx >= 0 {
		c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	}
}

// Total is the unrounded sum of line totals.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total float64
	for _, l := range c.lines {
		total += l.Total()
	}
	return total
}

func (c *Cart) TotalDiscount() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total float64
	for _, l := range c.lines {
		total += l.TotalDiscount()
	}
	return total
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Quantity is how much of batchCode the cart holds.
func (c *Cart) Quantity(batchCode string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx := c.indexOf(batchCode); idx >= 0 {
		return c.lines[idx].Quantity
	}
	return 0
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

func (c *Cart) indexOf(batchCode string) int {
	for i, l := range c.lines {
		if l.BatchCode == batchCode {
			return i
		}
	}
	return -1
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
