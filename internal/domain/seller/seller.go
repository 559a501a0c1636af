// Package seller models back-office user accounts that can be assigned to
// sales and earn commissions.
package seller

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no seller matches the lookup.
var ErrNotFound = errors.New("seller not found")

// Role distinguishes full administrators from regular sellers.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
)

// Seller is a back-office account eligible for sale assignment.
type Seller struct {
	ID   string
	Name string
	Role Role
}

// Directory defines lookup operations for seller accounts.
type Directory interface {
	List(ctx context.Context) ([]Seller, error)
	GetByID(ctx context.Context, id string) (*Seller, error)
}
