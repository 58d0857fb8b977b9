package dto

import (
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type CommitOrderInput struct {
	PaymentMethod model.PaymentMethod // CASH when empty
	CustomerPaid  float64
	CustomerID    *int64
	CustomerName  *string
}

type OrderFilters struct {
	PaymentStatus model.PaymentStatus
	PaymentMethod model.PaymentMethod
	StartDate     *time.Time
	EndDate       *time.Time
	// Classes is set from the caller's session, never from the request.
	Classes  []model.OrderClass
	Page     int
	PageSize int
}

type OrderDetail struct {
	Order model.Order       `json:"order"`
	Items []model.OrderItem `json:"items"`
}
