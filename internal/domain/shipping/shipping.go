// Package shipping holds the delivery city table used to price orders.
package shipping

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no shipping location matches the lookup.
var ErrNotFound = errors.New("shipping location not found")

// Location is a deliverable city with a flat shipping cost.
type Location struct {
	ID   string
	City string
	Cost decimal.Decimal
}

// Repository defines persistence operations for shipping locations. Cities
// are added and edited but never removed, so no delete is exposed.
type Repository interface {
	List(ctx context.Context) ([]Location, error)
	GetByID(ctx context.Context, id string) (*Location, error)
	Create(ctx context.Context, l *Location) (string, error)
	Update(ctx context.Context, l *Location) error
}
