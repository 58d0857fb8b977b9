package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{250, 250},
		{0.125, 0.13},
		{-250.004, -250},
		{-0.001, 0},
		{7.499999, 7.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}
}

func TestAmount(t *testing.T) {
	assert.Equal(t, "250.00", Amount(250))
	assert.Equal(t, "-250.00", Amount(-250))
	assert.Equal(t, "0.00", Amount(-0.001))
	assert.Equal(t, "7.50", Quantity(7.5))
}

func TestRoundingIsDisplayOnly(t *testing.T) {
	// three lines of 1/3 kg at 0.30 each: rounding per line would drift
	third := 1.0 / 3.0
	sum := 0.0
	for i := 0; i < 3; i++ {
		sum += third * 0.30
	}
	assert.Equal(t, "0.30", Amount(sum))
}
