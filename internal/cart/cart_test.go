package cart

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-sales-service/internal/apperror"
	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type stubFinder struct {
	batches map[string]model.Batch
	err     error
}

func (s stubFinder) GetBatch(_ context.Context, code string) (*model.Batch, error) {
	if s.err != nil {
		return nil, s.err
	}
	b, ok := s.batches[code]
	if !ok {
		return nil, apperror.NotFound("stub", "batch "+code)
	}
	return &b, nil
}

func newFinder() stubFinder {
	return stubFinder{batches: map[string]model.Batch{
		"B":   {Code: "B", ProductCode: 1, Description: "Rice", Quantity: 10, SellingPrice: 100, IsActive: true},
		"C":   {Code: "C", ProductCode: 2, Description: "Cable", Quantity: 3.5, SellingPrice: 20, IsActive: true},
		"OLD": {Code: "OLD", ProductCode: 3, Quantity: 10, IsActive: false},
	}}
}

func TestAddLineAndTotals(t *testing.T) {
	c := New(newFinder())
	ctx := context.Background()

	require.NoError(t, c.AddLine(ctx, "B", 2.5, 100, 0))
	require.NoError(t, c.AddLine(ctx, "C", 1.5, 20, 5))

	assert.Equal(t, 2, c.Len())
	assert.InDelta(t, 250.0+22.5, c.Total(), 1e-9)
	assert.InDelta(t, 7.5, c.TotalDiscount(), 1e-9)

	lines := c.Lines()
	assert.Equal(t, "B", lines[0].BatchCode)
	assert.Equal(t, "Rice", lines[0].Description)
	assert.InDelta(t, 250.0, lines[0].Total(), 1e-9)
}

func TestAddLineMergesKeepingFirstPrice(t *testing.T) {
	c := New(newFinder())
	ctx := context.Background()

	require.NoError(t, c.AddLine(ctx, "B", 2, 100, 10))
	require.NoError(t, c.AddLine(ctx, "B", 3, 80, 0))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.InDelta(t, 5.0, lines[0].Quantity, 1e-9)
	assert.InDelta(t, 100.0, lines[0].UnitPrice, 1e-9)
	assert.InDelta(t, 450.0, c.Total(), 1e-9)
}

func TestAddLineValidation(t *testing.T) {
	ctx := context.Background()
	cases := map[string]struct {
		batch                string
		qty, price, discount float64
	}{
		"zero quantity":       {"B", 0, 100, 0},
		"negative quantity":   {"B", -1, 100, 0},
		"negative price":      {"B", 1, -1, 0},
		"negative discount":   {"B", 1, 100, -1},
		"discount over price": {"B", 1, 100, 101},
		"nan quantity":        {"B", math.NaN(), 100, 0},
		"inf price":           {"B", 1, math.Inf(1), 0},
		"empty batch":         {"", 1, 100, 0},
		"unknown batch":       {"X", 1, 100, 0},
		"inactive batch":      {"OLD", 1, 100, 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := New(newFinder())
			err := c.AddLine(ctx, tc.batch, tc.qty, tc.price, tc.discount)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Zero(t, c.Len())
		})
	}
}

func TestAddLineInsufficientStockLeavesCartUnchanged(t *testing.T) {
	c := New(newFinder())
	ctx := context.Background()

	require.NoError(t, c.AddLine(ctx, "C", 3, 20, 0))

	err := c.AddLine(ctx, "C", 1, 20, 0)
	require.ErrorIs(t, err, apperror.ErrInsufficientStock)

	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr))
	assert.InDelta(t, 4.0, appErr.Details["Requested"].(float64), 1e-9)
	assert.InDelta(t, 3.5, appErr.Details["Available"].(float64), 1e-9)

	assert.InDelta(t, 3.0, c.Quantity("C"), 1e-9)
	assert.InDelta(t, 60.0, c.Total(), 1e-9)

	// exactly the remaining half unit still fits
	require.NoError(t, c.AddLine(ctx, "C", 0.5, 20, 0))
	assert.InDelta(t, 3.5, c.Quantity("C"), 1e-9)
}

func TestAddLineFractionalMergeUsesStoredScale(t *testing.T) {
	f := stubFinder{batches: map[string]model.Batch{
		"F": {Code: "F", ProductCode: 9, Quantity: 0.3, SellingPrice: 10, IsActive: true},
	}}
	c := New(f)
	ctx := context.Background()

	require.NoError(t, c.AddLine(ctx, "F", 0.1, 10, 0))
	require.NoError(t, c.AddLine(ctx, "F", 0.2, 10, 0))
	assert.Equal(t, 0.3, c.Quantity("F"))

	err := c.AddLine(ctx, "F", 0.0001, 10, 0)
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)

	err = c.AddLine(ctx, "F", 0.00001, 10, 0)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAddLinePropagatesLookupFailure(t *testing.T) {
	boom := errors.New("db down")
	c := New(stubFinder{err: boom})

	err := c.AddLine(context.Background(), "B", 1, 1, 0)
	assert.ErrorIs(t, err, boom)
}

func TestRemoveLineAndClear(t *testing.T) {
	c := New(newFinder())
	ctx := context.Background()

	require.NoError(t, c.AddLine(ctx, "B", 1, 100, 0))
	require.NoError(t, c.AddLine(ctx, "C", 1, 20, 0))

	c.RemoveLine("missing")
	c.RemoveLine("B")
	assert.Equal(t, 1, c.Len())
	assert.InDelta(t, 20.0, c.Total(), 1e-9)

	c.Clear()
	assert.Zero(t, c.Len())
	assert.Zero(t, c.Total())
}

func TestLineClampsEffectivePrice(t *testing.T) {
	l := Line{UnitPrice: 5, Discount: 7, Quantity: 2}
	assert.Zero(t, l.EffectivePrice())
	assert.Zero(t, l.Total())
	assert.InDelta(t, 14.0, l.TotalDiscount(), 1e-9)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(newFinder())
	ctx := context.Background()

	a := r.Get("s1")
	require.NoError(t, a.AddLine(ctx, "B", 1, 100, 0))
	assert.Same(t, a, r.Get("s1"))
	assert.Zero(t, r.Get("s2").Len())

	r.Discard("s1")
	assert.Zero(t, r.Get("s1").Len())
}
