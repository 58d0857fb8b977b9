package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/returns"
	"github.com/fekuna/omnipos-sales-service/internal/returns/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

var _ returns.Repository = (*PGRepository)(nil)

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Upsert(ctx context.Context, ret *model.ReturnOrder) error {
	query := `
        INSERT INTO return_orders (
            id, order_id, customer_email, customer_name, original_amount, refund_amount,
            reason, status, processed_by, inventory_restored, created_at, updated_at
        )
        VALUES (
            :id, :order_id, :customer_email, :customer_name, :original_amount, :refund_amount,
            :reason, :status, :processed_by, :inventory_restored, :created_at, :updated_at
        )
        ON CONFLICT (id) DO UPDATE SET
            refund_amount = EXCLUDED.refund_amount,
            reason = EXCLUDED.reason,
            status = EXCLUDED.status,
            processed_by = EXCLUDED.processed_by,
            inventory_restored = EXCLUDED.inventory_restored,
            updated_at = EXCLUDED.updated_at
    `
	_, err := r.DB.NamedExecContext(ctx, query, ret)
	return err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ReturnFilters) ([]model.ReturnOrder, int, error) {
	var items []model.ReturnOrder
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = string(f.Status)
	}
	if f.OrderID != 0 {
		conditions = append(conditions, "order_id = :order_id")
		args["order_id"] = f.OrderID
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at < :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*) FROM return_orders"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, err
		}
	}

	query := "SELECT * FROM return_orders" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) SumRefunds(ctx context.Context, from, to time.Time, statuses []model.ReturnStatus) (float64, error) {
	query, args, err := sqlx.In(`
        SELECT COALESCE(SUM(refund_amount), 0)
        FROM return_orders
        WHERE created_at >= ? AND created_at < ? AND status IN (?)
    `, from, to, statusNames(statuses))
	if err != nil {
		return 0, err
	}

	var total float64
	err = r.DB.GetContext(ctx, &total, r.DB.Rebind(query), args...)
	return total, err
}

func (r *PGRepository) SumRefundsByPeriod(ctx context.Context, from, to time.Time, period dto.Period, statuses []model.ReturnStatus) ([]dto.PeriodTotal, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("unsupported period %q", period)
	}

	// period is one of the Period constants here.
	query, args, err := sqlx.In(fmt.Sprintf(`
        SELECT date_trunc('%s', created_at AT TIME ZONE 'UTC') AS period_start,
               SUM(refund_amount) AS total
        FROM return_orders
        WHERE created_at >= ? AND created_at < ? AND status IN (?)
        GROUP BY period_start
        ORDER BY period_start
    `, period), from, to, statusNames(statuses))
	if err != nil {
		return nil, err
	}

	var rows []struct {
		PeriodStart time.Time `db:"period_start"`
		Total       float64   `db:"total"`
	}
	if err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(query), args...); err != nil {
		return nil, err
	}

	out := make([]dto.PeriodTotal, len(rows))
	for i, row := range rows {
		start := time.Date(row.PeriodStart.Year(), row.PeriodStart.Month(), row.PeriodStart.Day(), 0, 0, 0, 0, time.UTC)
		out[i] = dto.PeriodTotal{Period: period.Label(start), Start: start, Total: row.Total}
	}
	return out, nil
}

func statusNames(statuses []model.ReturnStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
