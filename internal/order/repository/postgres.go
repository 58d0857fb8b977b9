package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/order"
	"github.com/fekuna/omnipos-sales-service/internal/order/dto"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

var _ order.Repository = (*PGRepository)(nil)

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, o *model.Order, items []model.OrderItem) error {
	ext := postgres.Ext(ctx, r.DB)

	query := `
        INSERT INTO orders (
            issued_at, total_cost, customer_id, customer_name, discount, operator_id,
            order_class, payment_method, payment_status, customer_paid, balance, paid_at, paid_by
        )
        VALUES (
            :issued_at, :total_cost, :customer_id, :customer_name, :discount, :operator_id,
            :order_class, :payment_method, :payment_status, :customer_paid, :balance, :paid_at, :paid_by
        )
        RETURNING id
    `
	rows, err := sqlx.NamedQueryContext(ctx, ext, query, o)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if !rows.Next() {
		_ = rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		return errors.New("insert order: no id returned")
	}
	if err := rows.Scan(&o.ID); err != nil {
		_ = rows.Close()
		return fmt.Errorf("insert order: %w", err)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = o.ID
	}

	itemQuery := `
        INSERT INTO order_items (
            id, order_id, product_code, product_name, batch_code, quantity,
            unit_price, discount_per_unit, total_discount, line_total
        )
        VALUES (
            :id, :order_id, :product_code, :product_name, :batch_code, :quantity,
            :unit_price, :discount_per_unit, :total_discount, :line_total
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, ext, itemQuery, items); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.Order, error) {
	var o model.Order
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &o, `SELECT * FROM orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *PGRepository) ListItems(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := sqlx.SelectContext(ctx, postgres.Ext(ctx, r.DB), &items,
		`SELECT * FROM order_items WHERE order_id = $1 ORDER BY product_name, batch_code`, orderID)
	return items, err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	conditions := []string{}
	args := []interface{}{}

	if len(f.Classes) > 0 {
		conditions = append(conditions, "order_class IN (?)")
		args = append(args, classNames(f.Classes))
	}
	if f.PaymentStatus != "" {
		conditions = append(conditions, "payment_status = ?")
		args = append(args, string(f.PaymentStatus))
	}
	if f.PaymentMethod != "" {
		conditions = append(conditions, "payment_method = ?")
		args = append(args, string(f.PaymentMethod))
	}
	if f.StartDate != nil {
		conditions = append(conditions, "issued_at >= ?")
		args = append(args, *f.StartDate)
	}
	if f.EndDate != nil {
		conditions = append(conditions, "issued_at < ?")
		args = append(args, *f.EndDate)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := sqlx.In("SELECT count(*) FROM orders"+whereClause, args...)
	if err != nil {
		return nil, 0, err
	}
	var count int
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM orders" + whereClause + " ORDER BY issued_at DESC, id DESC"
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}
	query, listArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, 0, err
	}

	var orders []model.Order
	if err := r.DB.SelectContext(ctx, &orders, r.DB.Rebind(query), listArgs...); err != nil {
		return nil, 0, err
	}
	return orders, count, nil
}

// MarkPaid is a conditional update on the PENDING status so a completion can
// only ever happen once.
func (r *PGRepository) MarkPaid(ctx context.Context, id int64, classes []model.OrderClass, paidBy string, at time.Time) (bool, error) {
	query, args, err := sqlx.In(`
        UPDATE orders
        SET payment_status = 'PAID', paid_at = ?, paid_by = ?
        WHERE id = ? AND payment_status = 'PENDING' AND order_class IN (?)
    `, at, paidBy, id, classNames(classes))
	if err != nil {
		return false, err
	}

	res, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, r.DB.Rebind(query), args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PGRepository) SumRevenue(ctx context.Context, from, to time.Time) (float64, error) {
	var total float64
	err := r.DB.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(total_cost), 0) FROM orders WHERE issued_at >= $1 AND issued_at < $2`, from, to)
	return total, err
}

func classNames(classes []model.OrderClass) []string {
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = string(c)
	}
	return out
}
