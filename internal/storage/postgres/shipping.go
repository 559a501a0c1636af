package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diezydiez/watchstore/internal/domain/shipping"
)

const (
	listLocationsSQL   = `SELECT id, city, cost FROM shipping_locations ORDER BY city`
	getLocationByIDSQL = `SELECT id, city, cost FROM shipping_locations WHERE id = $1`
	createLocationSQL  = `INSERT INTO shipping_locations (id, city, cost) VALUES ($1, $2, $3)`
	updateLocationSQL  = `UPDATE shipping_locations SET city = $2, cost = $3 WHERE id = $1`
)

var _ shipping.Repository = (*ShippingRepository)(nil)

// ShippingRepository implements shipping.Repository backed by PostgreSQL.
type ShippingRepository struct {
	pool *pgxpool.Pool
}

// NewShippingRepository returns a ShippingRepository that uses the given pool.
func NewShippingRepository(pool *pgxpool.Pool) *ShippingRepository {
	return &ShippingRepository{pool: pool}
}

// List returns all deliverable cities ordered alphabetically.
func (r *ShippingRepository) List(ctx context.Context) ([]shipping.Location, error) {
	rows, err := r.pool.Query(ctx, listLocationsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing shipping locations: %w", err)
	}
	return pgx.CollectRows(rows, scanLocation)
}

// GetByID returns a single shipping location by its identifier.
func (r *ShippingRepository) GetByID(ctx context.Context, id string) (*shipping.Location, error) {
	rows, err := r.pool.Query(ctx, getLocationByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting shipping location %q: %w", id, err)
	}

	l, err := pgx.CollectExactlyOneRow(rows, scanLocation)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shipping.ErrNotFound
		}
		return nil, fmt.Errorf("getting shipping location %q: %w", id, err)
	}
	return &l, nil
}

// Create inserts a new shipping location, assigning an ID when none is set.
func (r *ShippingRepository) Create(ctx context.Context, l *shipping.Location) (string, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	_, err := r.pool.Exec(ctx, createLocationSQL, l.ID, l.City, l.Cost)
	if err != nil {
		return "", fmt.Errorf("creating shipping location %q: %w", l.City, err)
	}
	return l.ID, nil
}

// Update overwrites the city and cost of an existing location.
func (r *ShippingRepository) Update(ctx context.Context, l *shipping.Location) error {
	tag, err := r.pool.Exec(ctx, updateLocationSQL, l.ID, l.City, l.Cost)
	if err != nil {
		return fmt.Errorf("updating shipping location %q: %w", l.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return shipping.ErrNotFound
	}
	return nil
}

func scanLocation(row pgx.CollectableRow) (shipping.Location, error) {
	var l shipping.Location
	err := row.Scan(&l.ID, &l.City, &l.Cost)
	return l, err
}
