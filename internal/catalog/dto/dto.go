package dto

import "time"

type BatchFilters struct {
	ProductCode int64
	Query       string // code or product description
	ActiveOnly  bool
	Page        int
	PageSize    int
}

type MovementFilters struct {
	BatchCode    string
	MovementType string
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	PageSize     int
}
