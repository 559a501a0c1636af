// Package customer holds the manual customer ledger. A Customer is a contact
// record kept by the back office; it is independent from any authenticated
// storefront account.
package customer

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no customer matches the lookup.
var ErrNotFound = errors.New("customer not found")

// Customer is a ledger entry referenced by sales via its ID.
type Customer struct {
	ID      string
	Name    string
	Email   string
	Phone   string
	City    string
	Address string
}

// Directory defines persistence operations for the customer ledger.
// FindByEmail matches case-insensitively and is used by purchase conversion
// to avoid creating duplicate customers.
type Directory interface {
	List(ctx context.Context) ([]Customer, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	Create(ctx context.Context, c *Customer) (string, error)
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id string) error
}
