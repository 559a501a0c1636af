package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diezydiez/watchstore/internal/domain/purchase"
	"github.com/diezydiez/watchstore/internal/domain/sale"
)

const (
	purchaseColumns = `id, date, customer_name, customer_email, phone,
		shipping_address, city, note, items, subtotal, discount, shipping_cost, total`

	insertPurchaseSQL = `INSERT INTO unregistered_purchases (` + purchaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	getPurchaseSQL = `SELECT ` + purchaseColumns + ` FROM unregistered_purchases WHERE id = $1`

	listPurchasesSQL = `SELECT ` + purchaseColumns + ` FROM unregistered_purchases ORDER BY date DESC`

	deletePurchaseSQL = `DELETE FROM unregistered_purchases WHERE id = $1`
)

var _ purchase.Repository = (*PurchaseRepository)(nil)

// PurchaseRepository implements purchase.Repository backed by PostgreSQL.
// Conversion does not live here: consuming a purchase must share a
// transaction with the stock decrement, so SaleRepository.ConvertPurchase
// owns that path.
type PurchaseRepository struct {
	pool *pgxpool.Pool
}

// NewPurchaseRepository returns a PurchaseRepository that uses the given pool.
func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

// Create persists a guest purchase. No stock is touched.
func (r *PurchaseRepository) Create(ctx context.Context, p *purchase.Purchase) error {
	items, err := json.Marshal(p.Items)
	if err != nil {
		return fmt.Errorf("marshaling purchase items: %w", err)
	}
	var discountJSON []byte
	if p.Discount != nil {
		discountJSON, err = json.Marshal(p.Discount)
		if err != nil {
			return fmt.Errorf("marshaling discount: %w", err)
		}
	}

	_, err = r.pool.Exec(ctx, insertPurchaseSQL,
		p.ID, p.Date, p.CustomerName, p.CustomerEmail, p.Phone,
		p.ShippingAddress, p.City, p.Note, items, p.Subtotal, discountJSON,
		p.ShippingCost, p.Total,
	)
	if err != nil {
		return fmt.Errorf("creating purchase %q: %w", p.ID, err)
	}
	return nil
}

// GetByID returns a pending purchase by ID.
func (r *PurchaseRepository) GetByID(ctx context.Context, id string) (*purchase.Purchase, error) {
	rows, err := r.pool.Query(ctx, getPurchaseSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting purchase %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPurchase)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, purchase.ErrNotFound
		}
		return nil, fmt.Errorf("getting purchase %q: %w", id, err)
	}
	return &p, nil
}

// List returns all pending purchases, newest first.
func (r *PurchaseRepository) List(ctx context.Context) ([]purchase.Purchase, error) {
	rows, err := r.pool.Query(ctx, listPurchasesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing purchases: %w", err)
	}
	return pgx.CollectRows(rows, scanPurchase)
}

// Delete discards a pending purchase.
func (r *PurchaseRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deletePurchaseSQL, id)
	if err != nil {
		return fmt.Errorf("deleting purchase %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return purchase.ErrNotFound
	}
	return nil
}

func scanPurchase(row pgx.CollectableRow) (purchase.Purchase, error) {
	var (
		p            purchase.Purchase
		items        []byte
		discountJSON []byte
	)
	err := row.Scan(
		&p.ID, &p.Date, &p.CustomerName, &p.CustomerEmail, &p.Phone,
		&p.ShippingAddress, &p.City, &p.Note, &items, &p.Subtotal,
		&discountJSON, &p.ShippingCost, &p.Total,
	)
	if err != nil {
		return p, err
	}

	if err := json.Unmarshal(items, &p.Items); err != nil {
		return p, fmt.Errorf("unmarshaling purchase items: %w", err)
	}
	if len(discountJSON) > 0 {
		p.Discount = new(sale.AppliedDiscount)
		if err := json.Unmarshal(discountJSON, p.Discount); err != nil {
			return p, fmt.Errorf("unmarshaling discount: %w", err)
		}
	}
	return p, nil
}
