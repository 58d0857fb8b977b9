package model

import (
	"math"
	"time"
)

const (
	MovementTypeOpening = "opening"
	MovementTypeSale    = "sale"

	ReferenceTypeOrder = "order"
)

// QuantityEpsilon absorbs float noise when comparing requested against on-hand quantity.
const QuantityEpsilon = 1e-9

// quantityScale matches the NUMERIC(14, 4) quantity columns.
const quantityScale = 1e4

// RoundQuantity snaps q to the four decimal places stock is stored with, so
// 0.1+0.2 compares equal to a stored 0.3 in every store.
func RoundQuantity(q float64) float64 {
	return math.Round(q*quantityScale) / quantityScale
}

type StockMovement struct {
	ID             string    `db:"id" json:"id"`
	BatchCode      string    `db:"batch_code" json:"batch_code"`
	MovementType   string    `db:"movement_type" json:"movement_type"`
	QuantityChange float64   `db:"quantity_change" json:"quantity_change"`
	ReferenceType  *string   `db:"reference_type" json:"reference_type,omitempty"`
	ReferenceID    *string   `db:"reference_id" json:"reference_id,omitempty"`
	CreatedBy      *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
