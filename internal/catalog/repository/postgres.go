package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/catalog"
	"github.com/fekuna/omnipos-sales-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

var _ catalog.Repository = (*PGRepository)(nil)

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const batchColumns = `b.code, b.product_code, b.quantity, b.selling_price, b.buying_price, b.show_price,
        b.discount_eligible, b.barcode_image, b.is_active, b.created_at, b.updated_at, p.description`

func (r *PGRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (description, created_at, updated_at)
        VALUES ($1, $2, $3)
        RETURNING code
    `
	return postgres.Ext(ctx, r.DB).QueryRowxContext(ctx, query, p.Description, p.CreatedAt, p.UpdatedAt).Scan(&p.Code)
}

func (r *PGRepository) FindProduct(ctx context.Context, code int64) (*model.Product, error) {
	var p model.Product
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &p, `SELECT * FROM products WHERE code = $1`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) UpdateProductDescription(ctx context.Context, code int64, description string, at time.Time) (bool, error) {
	res, err := postgres.Ext(ctx, r.DB).ExecContext(ctx,
		`UPDATE products SET description = $1, updated_at = $2 WHERE code = $3`, description, at, code)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r *PGRepository) CreateBatch(ctx context.Context, b *model.Batch) error {
	query := `
        INSERT INTO batches (
            code, product_code, quantity, selling_price, buying_price, show_price,
            discount_eligible, barcode_image, is_active, created_at, updated_at
        )
        VALUES (
            :code, :product_code, :quantity, :selling_price, :buying_price, :show_price,
            :discount_eligible, :barcode_image, :is_active, :created_at, :updated_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, b)
	if postgres.IsUniqueViolation(err) {
		return catalog.ErrDuplicate
	}
	return err
}

func (r *PGRepository) FindBatch(ctx context.Context, code string) (*model.Batch, error) {
	var b model.Batch
	query := `SELECT ` + batchColumns + ` FROM batches b JOIN products p ON p.code = b.product_code WHERE b.code = $1`
	err := sqlx.GetContext(ctx, postgres.Ext(ctx, r.DB), &b, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGRepository) FindBatches(ctx context.Context, f *dto.BatchFilters) ([]model.Batch, int, error) {
	var items []model.Batch
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductCode != 0 {
		conditions = append(conditions, "b.product_code = :product_code")
		args["product_code"] = f.ProductCode
	}
	if f.ActiveOnly {
		conditions = append(conditions, "b.is_active")
	}
	if f.Query != "" {
		conditions = append(conditions, "(b.code ILIKE :search OR p.description ILIKE :search)")
		args["search"] = "%" + f.Query + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}
	from := " FROM batches b JOIN products p ON p.code = b.product_code"

	rows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*)"+from+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, err
		}
	}

	query := "SELECT " + batchColumns + from + whereClause + " ORDER BY p.description, b.created_at"
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

func (r *PGRepository) SetBatchActive(ctx context.Context, code string, active bool, at time.Time) (bool, error) {
	res, err := postgres.Ext(ctx, r.DB).ExecContext(ctx,
		`UPDATE batches SET is_active = $1, updated_at = $2 WHERE code = $3`, active, at, code)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// DecrementStock is a single conditional update so concurrent sales of the same
// batch cannot both pass a stale availability check.
func (r *PGRepository) DecrementStock(ctx context.Context, batchCode string, quantity float64, at time.Time) (bool, error) {
	query := `
        UPDATE batches
        SET quantity = quantity - $1, updated_at = $2
        WHERE code = $3 AND is_active AND quantity >= $1
    `
	res, err := postgres.Ext(ctx, r.DB).ExecContext(ctx, query, model.RoundQuantity(quantity), at, batchCode)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r *PGRepository) LogMovement(ctx context.Context, m *model.StockMovement) error {
	query := `
        INSERT INTO stock_movements (
            id, batch_code, movement_type, quantity_change,
            reference_type, reference_id, created_by, created_at
        )
        VALUES (
            :id, :batch_code, :movement_type, :quantity_change,
            :reference_type, :reference_id, :created_by, :created_at
        )
    `
	_, err := sqlx.NamedExecContext(ctx, postgres.Ext(ctx, r.DB), query, m)
	return err
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	var items []model.StockMovement
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.BatchCode != "" {
		conditions = append(conditions, "batch_code = :batch_code")
		args["batch_code"] = f.BatchCode
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
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

	rows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*) FROM stock_movements"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, err
		}
	}

	query := "SELECT * FROM stock_movements" + whereClause + " ORDER BY created_at DESC"
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

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
