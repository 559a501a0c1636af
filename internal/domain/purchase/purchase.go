// Package purchase models unregistered web purchases: guest checkouts that
// have no seller or customer account bound to them. Stock is NOT decremented
// when a purchase is created; the decrement happens only if and when the
// purchase is converted into a formal sale.
package purchase

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/diezydiez/watchstore/internal/domain/sale"
)

var (
	// ErrNotFound is returned when no purchase matches the lookup.
	ErrNotFound = errors.New("unregistered purchase not found")

	// ErrAlreadyConverted is returned when a conversion targets a purchase
	// that was already consumed by a previous conversion.
	ErrAlreadyConverted = errors.New("purchase already converted to a sale")
)

// Purchase is a guest checkout record awaiting conversion. Line items and
// pricing are frozen at checkout time; conversion reuses them verbatim.
type Purchase struct {
	ID              string
	Date            time.Time
	CustomerName    string
	CustomerEmail   string
	Phone           string
	ShippingAddress string
	City            string
	Note            string
	Items           []sale.Item
	Subtotal        decimal.Decimal
	Discount        *sale.AppliedDiscount
	ShippingCost    decimal.Decimal
	Total           decimal.Decimal
}

// Repository defines persistence operations for unregistered purchases.
// Consumption on conversion is handled by the sale repository so that the
// delete shares a transaction with the stock decrement and sale insert.
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	GetByID(ctx context.Context, id string) (*Purchase, error)
	List(ctx context.Context) ([]Purchase, error)
	Delete(ctx context.Context, id string) error
}
