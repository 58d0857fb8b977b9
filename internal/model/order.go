package model

import "time"

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCredit PaymentMethod = "CREDIT"
	PaymentMethodCheque PaymentMethod = "CHEQUE"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCredit, PaymentMethodCheque:
		return true
	}
	return false
}

// Deferred methods leave the order PENDING until the payment is completed.
func (m PaymentMethod) Deferred() bool {
	return m == PaymentMethodCredit || m == PaymentMethodCheque
}

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusPending PaymentStatus = "PENDING"
)

// OrderClass partitions orders by the privilege tier of the operator who
// placed them.
type OrderClass string

const (
	OrderClassRegular    OrderClass = "REGULAR"
	OrderClassSuperAdmin OrderClass = "SUPER_ADMIN"
)

type Order struct {
	ID            int64         `db:"id" json:"id"`
	IssuedAt      time.Time     `db:"issued_at" json:"issued_at"`
	TotalCost     float64       `db:"total_cost" json:"total_cost"`
	CustomerID    *int64        `db:"customer_id" json:"customer_id"`
	CustomerName  *string       `db:"customer_name" json:"customer_name"`
	Discount      float64       `db:"discount" json:"discount"`
	OperatorID    string        `db:"operator_id" json:"operator_id"`
	OrderClass    OrderClass    `db:"order_class" json:"order_class"`
	PaymentMethod PaymentMethod `db:"payment_method" json:"payment_method"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"payment_status"`
	CustomerPaid  float64       `db:"customer_paid" json:"customer_paid"`
	Balance       float64       `db:"balance" json:"balance"`
	PaidAt        *time.Time    `db:"paid_at" json:"paid_at"`
	PaidBy        *string       `db:"paid_by" json:"paid_by"`
}

type OrderItem struct {
	ID              string  `db:"id" json:"id"`
	OrderID         int64   `db:"order_id" json:"order_id"`
	ProductCode     int64   `db:"product_code" json:"product_code"`
	ProductName     string  `db:"product_name" json:"product_name"`
	BatchCode       string  `db:"batch_code" json:"batch_code"`
	Quantity        float64 `db:"quantity" json:"quantity"`
	UnitPrice       float64 `db:"unit_price" json:"unit_price"`
	DiscountPerUnit float64 `db:"discount_per_unit" json:"discount_per_unit"`
	TotalDiscount   float64 `db:"total_discount" json:"total_discount"`
	LineTotal       float64 `db:"line_total" json:"line_total"`
}
