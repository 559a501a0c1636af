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
	saleColumns = `id, date, customer_id, customer_name, seller_id, seller_name,
		shipping_address, city, phone, note, items, subtotal, shipping_cost,
		discount, extra_discount, extra_cost, total, profit,
		commission_pct, commission_amount, amount_paid, payments, status`

	insertSaleSQL = `INSERT INTO sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23)`

	getSaleSQL = `SELECT ` + saleColumns + ` FROM sales WHERE id = $1`

	getSaleForUpdateSQL = getSaleSQL + ` FOR UPDATE`

	listSalesSQL = `SELECT ` + saleColumns + ` FROM sales ORDER BY date DESC`

	listSalesBySellerSQL = `SELECT ` + saleColumns + ` FROM sales
		WHERE seller_id = $1 ORDER BY date DESC`

	updateSaleSQL = `UPDATE sales SET
		customer_id = $2, customer_name = $3, seller_id = $4, seller_name = $5,
		shipping_address = $6, city = $7, phone = $8, note = $9,
		extra_discount = $10, extra_cost = $11, total = $12,
		commission_pct = $13, commission_amount = $14,
		amount_paid = $15, payments = $16, status = $17
		WHERE id = $1`

	deleteSaleSQL = `DELETE FROM sales WHERE id = $1`

	// The quantity guard makes oversells impossible even if the caller's
	// pre-check raced with another sale.
	decrementStockSQL = `UPDATE products SET quantity = quantity - $2
		WHERE id = $1 AND quantity >= $2`

	restoreStockSQL = `UPDATE products SET quantity = quantity + $2 WHERE id = $1`

	stockDetailSQL = `SELECT name, quantity FROM products WHERE id = $1`

	consumePurchaseSQL = `DELETE FROM unregistered_purchases WHERE id = $1`
)

var _ sale.Repository = (*SaleRepository)(nil)

// SaleRepository implements sale.Repository backed by PostgreSQL. Every write
// that touches stock runs in a single transaction so a failure on any line
// rolls back all of them.
type SaleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository returns a SaleRepository that uses the given pool.
func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

// Create inserts the sale and applies its stock decrements atomically.
func (r *SaleRepository) Create(ctx context.Context, s *sale.Sale, decrements []sale.StockChange) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := decrementStock(ctx, tx, decrements); err != nil {
			return err
		}
		return insertSale(ctx, tx, s)
	})
}

// Get returns a sale by ID.
func (r *SaleRepository) Get(ctx context.Context, id string) (*sale.Sale, error) {
	rows, err := r.pool.Query(ctx, getSaleSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting sale %q: %w", id, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanSale)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sale.ErrNotFound
		}
		return nil, fmt.Errorf("getting sale %q: %w", id, err)
	}
	return &s, nil
}

// List returns all sales, newest first.
func (r *SaleRepository) List(ctx context.Context) ([]sale.Sale, error) {
	rows, err := r.pool.Query(ctx, listSalesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	return pgx.CollectRows(rows, scanSale)
}

// ListBySeller returns the sales assigned to one seller, newest first.
func (r *SaleRepository) ListBySeller(ctx context.Context, sellerID string) ([]sale.Sale, error) {
	rows, err := r.pool.Query(ctx, listSalesBySellerSQL, sellerID)
	if err != nil {
		return nil, fmt.Errorf("listing sales for seller %q: %w", sellerID, err)
	}
	return pgx.CollectRows(rows, scanSale)
}

// Update runs fn against the row locked with SELECT ... FOR UPDATE, so
// concurrent mutations of the same sale serialize instead of both reading the
// same stale balance. Stock changes returned by fn are applied as restores in
// the same transaction.
func (r *SaleRepository) Update(ctx context.Context, id string, fn sale.UpdateFunc) (*sale.Sale, error) {
	var out *sale.Sale
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, getSaleForUpdateSQL, id)
		if err != nil {
			return fmt.Errorf("locking sale %q: %w", id, err)
		}
		s, err := pgx.CollectExactlyOneRow(rows, scanSale)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return sale.ErrNotFound
			}
			return fmt.Errorf("locking sale %q: %w", id, err)
		}

		restock, err := fn(&s)
		if err != nil {
			return err
		}
		if err := restoreStock(ctx, tx, restock); err != nil {
			return err
		}

		if err := updateSale(ctx, tx, &s); err != nil {
			return err
		}
		out = &s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the sale and restores the given stock in one transaction.
func (r *SaleRepository) Delete(ctx context.Context, id string, restock []sale.StockChange) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := restoreStock(ctx, tx, restock); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, deleteSaleSQL, id)
		if err != nil {
			return fmt.Errorf("deleting sale %q: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return sale.ErrNotFound
		}
		return nil
	})
}

// ConvertPurchase consumes the unregistered purchase, applies the deferred
// stock decrements, and inserts the sale as one atomic step. A second
// conversion of the same purchase finds the record gone and fails with
// purchase.ErrAlreadyConverted, decrementing nothing.
func (r *SaleRepository) ConvertPurchase(ctx context.Context, purchaseID string, s *sale.Sale, decrements []sale.StockChange) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, consumePurchaseSQL, purchaseID)
		if err != nil {
			return fmt.Errorf("consuming purchase %q: %w", purchaseID, err)
		}
		if tag.RowsAffected() == 0 {
			return purchase.ErrAlreadyConverted
		}

		if err := decrementStock(ctx, tx, decrements); err != nil {
			return err
		}
		return insertSale(ctx, tx, s)
	})
}

func insertSale(ctx context.Context, tx pgx.Tx, s *sale.Sale) error {
	items, payments, discountJSON, err := marshalSaleJSON(s)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, insertSaleSQL,
		s.ID, s.Date, s.CustomerID, s.CustomerName, s.SellerID, s.SellerName,
		s.ShippingAddress, s.City, s.Phone, s.Note, items, s.Subtotal,
		s.ShippingCost, discountJSON, s.ExtraDiscount, s.ExtraCost, s.Total,
		s.Profit, s.Commission.Percentage, s.Commission.Amount, s.AmountPaid,
		payments, s.Status,
	)
	if err != nil {
		return fmt.Errorf("inserting sale %q: %w", s.ID, err)
	}
	return nil
}

func updateSale(ctx context.Context, tx pgx.Tx, s *sale.Sale) error {
	payments, err := json.Marshal(s.Payments)
	if err != nil {
		return fmt.Errorf("marshaling payments: %w", err)
	}

	_, err = tx.Exec(ctx, updateSaleSQL,
		s.ID, s.CustomerID, s.CustomerName, s.SellerID, s.SellerName,
		s.ShippingAddress, s.City, s.Phone, s.Note,
		s.ExtraDiscount, s.ExtraCost, s.Total,
		s.Commission.Percentage, s.Commission.Amount,
		s.AmountPaid, payments, s.Status,
	)
	if err != nil {
		return fmt.Errorf("updating sale %q: %w", s.ID, err)
	}
	return nil
}

// decrementStock applies all decrements, failing with a typed stock error on
// the first line that cannot be satisfied. The caller's transaction rolls the
// earlier decrements back.
func decrementStock(ctx context.Context, tx pgx.Tx, decrements []sale.StockChange) error {
	for _, c := range decrements {
		tag, err := tx.Exec(ctx, decrementStockSQL, c.ProductID, c.Quantity)
		if err != nil {
			return fmt.Errorf("decrementing stock for %q: %w", c.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return stockError(ctx, tx, c)
		}
	}
	return nil
}

func restoreStock(ctx context.Context, tx pgx.Tx, restock []sale.StockChange) error {
	for _, c := range restock {
		if _, err := tx.Exec(ctx, restoreStockSQL, c.ProductID, c.Quantity); err != nil {
			return fmt.Errorf("restoring stock for %q: %w", c.ProductID, err)
		}
	}
	return nil
}

// stockError inspects why a guarded decrement matched no row: the product is
// gone, or it exists with too little stock.
func stockError(ctx context.Context, tx pgx.Tx, c sale.StockChange) error {
	var (
		name     string
		quantity int
	)
	err := tx.QueryRow(ctx, stockDetailSQL, c.ProductID).Scan(&name, &quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &sale.ProductUnavailableError{ProductID: c.ProductID}
		}
		return fmt.Errorf("inspecting stock for %q: %w", c.ProductID, err)
	}
	return &sale.InsufficientStockError{
		ProductID:   c.ProductID,
		ProductName: name,
		Requested:   c.Quantity,
		Available:   quantity,
	}
}

func marshalSaleJSON(s *sale.Sale) (items, payments, discountJSON []byte, err error) {
	items, err = json.Marshal(s.Items)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshaling sale items: %w", err)
	}
	payments, err = json.Marshal(s.Payments)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("marshaling payments: %w", err)
	}
	if s.Discount != nil {
		discountJSON, err = json.Marshal(s.Discount)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("marshaling discount: %w", err)
		}
	}
	return items, payments, discountJSON, nil
}

func scanSale(row pgx.CollectableRow) (sale.Sale, error) {
	var (
		s            sale.Sale
		status       string
		items        []byte
		payments     []byte
		discountJSON []byte
	)
	err := row.Scan(
		&s.ID, &s.Date, &s.CustomerID, &s.CustomerName, &s.SellerID, &s.SellerName,
		&s.ShippingAddress, &s.City, &s.Phone, &s.Note, &items, &s.Subtotal,
		&s.ShippingCost, &discountJSON, &s.ExtraDiscount, &s.ExtraCost, &s.Total,
		&s.Profit, &s.Commission.Percentage, &s.Commission.Amount, &s.AmountPaid,
		&payments, &status,
	)
	if err != nil {
		return s, err
	}
	s.Status = sale.Status(status)

	if err := json.Unmarshal(items, &s.Items); err != nil {
		return s, fmt.Errorf("unmarshaling sale items: %w", err)
	}
	if err := json.Unmarshal(payments, &s.Payments); err != nil {
		return s, fmt.Errorf("unmarshaling payments: %w", err)
	}
	if len(discountJSON) > 0 {
		s.Discount = new(sale.AppliedDiscount)
		if err := json.Unmarshal(discountJSON, s.Discount); err != nil {
			return s, fmt.Errorf("unmarshaling discount: %w", err)
		}
	}
	return s, nil
}
