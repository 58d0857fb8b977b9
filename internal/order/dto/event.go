package dto

import (
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
)

const (
	EventOrderCommitted   = "order.committed"
	EventPaymentCompleted = "order.payment_completed"
)

type EventItem struct {
	BatchCode string  `json:"batch_code"`
	Quantity  float64 `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

type OrderCommittedEvent struct {
	Type          string              `json:"type"`
	OrderID       int64               `json:"order_id"`
	OrderClass    model.OrderClass    `json:"order_class"`
	OperatorID    string              `json:"operator_id"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	TotalCost     float64             `json:"total_cost"`
	Discount      float64             `json:"discount"`
	Balance       float64             `json:"balance"`
	Items         []EventItem         `json:"items"`
	IssuedAt      time.Time           `json:"issued_at"`
}

type PaymentCompletedEvent struct {
	Type    string    `json:"type"`
	OrderID int64     `json:"order_id"`
	PaidBy  string    `json:"paid_by"`
	PaidAt  time.Time `json:"paid_at"`
}
