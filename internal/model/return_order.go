package model

import "time"

type ReturnStatus string

const (
	ReturnStatusPending   ReturnStatus = "PENDING"
	ReturnStatusApproved  ReturnStatus = "APPROVED"
	ReturnStatusRejected  ReturnStatus = "REJECTED"
	ReturnStatusCompleted ReturnStatus = "COMPLETED"
)

func (s ReturnStatus) Valid() bool {
	switch s {
	case ReturnStatusPending, ReturnStatusApproved, ReturnStatusRejected, ReturnStatusCompleted:
		return true
	}
	return false
}

// RefundStatuses are the return states whose refund amount counts against revenue.
var RefundStatuses = []ReturnStatus{ReturnStatusApproved, ReturnStatusCompleted}

// ReturnOrder references an order by id only; the order may no longer exist.
type ReturnOrder struct {
	ID                string       `db:"id" json:"id"`
	OrderID           int64        `db:"order_id" json:"order_id"`
	CustomerEmail     *string      `db:"customer_email" json:"customer_email"`
	CustomerName      *string      `db:"customer_name" json:"customer_name"`
	OriginalAmount    float64      `db:"original_amount" json:"original_amount"`
	RefundAmount      float64      `db:"refund_amount" json:"refund_amount"`
	Reason            string       `db:"reason" json:"reason"`
	Status            ReturnStatus `db:"status" json:"status"`
	ProcessedBy       *string      `db:"processed_by" json:"processed_by"`
	InventoryRestored bool         `db:"inventory_restored" json:"inventory_restored"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}
