package dto

import (
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
)

type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

func (p Period) Valid() bool {
	return p == PeriodDay || p == PeriodMonth
}

// Truncate returns the UTC start of the period containing t.
func (p Period) Truncate(t time.Time) time.Time {
	t = t.UTC()
	if p == PeriodMonth {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Label formats a period start, e.g. 2026-10-16 or 2026-10.
func (p Period) Label(start time.Time) string {
	if p == PeriodMonth {
		return start.UTC().Format("2006-01")
	}
	return start.UTC().Format("2006-01-02")
}

type PeriodTotal struct {
	Period string    `json:"period"`
	Start  time.Time `json:"start"`
	Total  float64   `json:"total"`
}

type NetRevenue struct {
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Gross   float64   `json:"gross"`
	Refunds float64   `json:"refunds"`
	Net     float64   `json:"net"`
}

type ReturnFilters struct {
	Status    model.ReturnStatus
	OrderID   int64
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

// RecordReturnInput is a return as reported by the return-processing service.
type RecordReturnInput struct {
	ID                string             `json:"id"` // generated when empty
	OrderID           int64              `json:"order_id"`
	CustomerEmail     string             `json:"customer_email"`
	CustomerName      string             `json:"customer_name"`
	OriginalAmount    float64            `json:"original_amount"`
	RefundAmount      float64            `json:"refund_amount"`
	Reason            string             `json:"reason"`
	Status            model.ReturnStatus `json:"status"`
	ProcessedBy       string             `json:"processed_by"`
	InventoryRestored bool               `json:"inventory_restored"`
	CreatedAt         time.Time          `json:"created_at"`
}
