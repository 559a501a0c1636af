package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diezydiez/watchstore/internal/domain/customer"
)

const (
	customerColumns = `id, name, email, phone, city, address`

	listCustomersSQL = `SELECT ` + customerColumns + ` FROM customers ORDER BY name`

	getCustomerByIDSQL = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	findCustomerByEmailSQL = `SELECT ` + customerColumns + ` FROM customers
		WHERE LOWER(email) = LOWER($1) AND email <> '' LIMIT 1`

	createCustomerSQL = `INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`

	updateCustomerSQL = `UPDATE customers
		SET name = $2, email = $3, phone = $4, city = $5, address = $6
		WHERE id = $1`

	deleteCustomerSQL = `DELETE FROM customers WHERE id = $1`
)

var _ customer.Directory = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Directory backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// List returns all customers ordered by name.
func (r *CustomerRepository) List(ctx context.Context) ([]customer.Customer, error) {
	rows, err := r.pool.Query(ctx, listCustomersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	return pgx.CollectRows(rows, scanCustomer)
}

// GetByID returns a single customer by its identifier.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting customer %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %q: %w", id, err)
	}
	return &c, nil
}

// FindByEmail looks up a customer by email, case-insensitively.
func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, findCustomerByEmailSQL, email)
	if err != nil {
		return nil, fmt.Errorf("finding customer by email: %w", err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("finding customer by email: %w", err)
	}
	return &c, nil
}

// Create inserts a new customer, assigning an ID when none is set.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.pool.Exec(ctx, createCustomerSQL,
		c.ID, c.Name, c.Email, c.Phone, c.City, c.Address,
	)
	if err != nil {
		return "", fmt.Errorf("creating customer %q: %w", c.ID, err)
	}
	return c.ID, nil
}

// Update overwrites all mutable fields of an existing customer.
func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	tag, err := r.pool.Exec(ctx, updateCustomerSQL,
		c.ID, c.Name, c.Email, c.Phone, c.City, c.Address,
	)
	if err != nil {
		return fmt.Errorf("updating customer %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

// Delete removes a customer from the ledger.
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCustomerSQL, id)
	if err != nil {
		return fmt.Errorf("deleting customer %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.City, &c.Address)
	return c, err
}
