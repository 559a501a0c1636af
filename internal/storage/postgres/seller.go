package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diezydiez/watchstore/internal/domain/seller"
)

const (
	listSellersSQL   = `SELECT id, name, role FROM sellers ORDER BY name`
	getSellerByIDSQL = `SELECT id, name, role FROM sellers WHERE id = $1`
)

var _ seller.Directory = (*SellerRepository)(nil)

// SellerRepository implements seller.Directory backed by PostgreSQL.
type SellerRepository struct {
	pool *pgxpool.Pool
}

// NewSellerRepository returns a SellerRepository that uses the given pool.
func NewSellerRepository(pool *pgxpool.Pool) *SellerRepository {
	return &SellerRepository{pool: pool}
}

// List returns all seller accounts ordered by name.
func (r *SellerRepository) List(ctx context.Context) ([]seller.Seller, error) {
	rows, err := r.pool.Query(ctx, listSellersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing sellers: %w", err)
	}
	return pgx.CollectRows(rows, scanSeller)
}

// GetByID returns a single seller by its identifier.
func (r *SellerRepository) GetByID(ctx context.Context, id string) (*seller.Seller, error) {
	rows, err := r.pool.Query(ctx, getSellerByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting seller %q: %w", id, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanSeller)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, seller.ErrNotFound
		}
		return nil, fmt.Errorf("getting seller %q: %w", id, err)
	}
	return &s, nil
}

func scanSeller(row pgx.CollectableRow) (seller.Seller, error) {
	var (
		s    seller.Seller
		role string
	)
	err := row.Scan(&s.ID, &s.Name, &role)
	s.Role = seller.Role(role)
	return s, err
}
