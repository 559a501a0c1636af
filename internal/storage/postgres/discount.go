package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diezydiez/watchstore/internal/domain/discount"
)

const (
	listDiscountCodesSQL = `SELECT id, percentage, start_date, end_date
		FROM discount_codes ORDER BY id`

	findDiscountCodeSQL = `SELECT id, percentage, start_date, end_date
		FROM discount_codes WHERE UPPER(id) = UPPER($1)`

	upsertDiscountCodeSQL = `INSERT INTO discount_codes (id, percentage, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			percentage = EXCLUDED.percentage,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date`

	deleteDiscountCodeSQL = `DELETE FROM discount_codes WHERE id = $1`
)

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// FindByID looks up a discount code case-insensitively. Returns
// discount.ErrInvalidCode when no matching code exists.
func (r *DiscountRepository) FindByID(ctx context.Context, code string) (*discount.Code, error) {
	rows, err := r.pool.Query(ctx, findDiscountCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding discount code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanDiscountCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrInvalidCode
		}
		return nil, fmt.Errorf("finding discount code %q: %w", code, err)
	}
	return &c, nil
}

// List returns all discount codes ordered by code.
func (r *DiscountRepository) List(ctx context.Context) ([]discount.Code, error) {
	rows, err := r.pool.Query(ctx, listDiscountCodesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing discount codes: %w", err)
	}
	return pgx.CollectRows(rows, scanDiscountCode)
}

// Upsert inserts the code or overwrites its percentage and validity window.
func (r *DiscountRepository) Upsert(ctx context.Context, c *discount.Code) error {
	_, err := r.pool.Exec(ctx, upsertDiscountCodeSQL,
		c.ID, c.Percentage, c.StartDate, c.EndDate,
	)
	if err != nil {
		return fmt.Errorf("upserting discount code %q: %w", c.ID, err)
	}
	return nil
}

// Delete removes a discount code.
func (r *DiscountRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteDiscountCodeSQL, id)
	if err != nil {
		return fmt.Errorf("deleting discount code %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrInvalidCode
	}
	return nil
}

func scanDiscountCode(row pgx.CollectableRow) (discount.Code, error) {
	var c discount.Code
	err := row.Scan(&c.ID, &c.Percentage, &c.StartDate, &c.EndDate)
	return c, err
}
