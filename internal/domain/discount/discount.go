// Package discount implements promotional discount codes. A code carries a
// percentage and a validity window; the computed amount is frozen into the
// sale at creation time and never recomputed.
package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ErrInvalidCode is returned when a code does not exist or the current date
// falls outside its validity window. Callers treat it as recoverable:
// checkout may proceed without a discount.
var ErrInvalidCode = errors.New("discount code invalid or expired")

// Code is a promotional discount rule. The ID doubles as the code the
// shopper types; lookups are case-insensitive.
type Code struct {
	ID         string
	Percentage decimal.Decimal
	StartDate  time.Time
	EndDate    time.Time
}

// Amount computes the discount for a given subtotal, rounded to 2 decimals.
func (c *Code) Amount(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(c.Percentage).Div(hundred).Round(2)
}

// Repository provides lookup of discount codes. Implementations must match
// codes case-insensitively and return ErrInvalidCode for unknown codes.
type Repository interface {
	FindByID(ctx context.Context, code string) (*Code, error)
	List(ctx context.Context) ([]Code, error)
	Upsert(ctx context.Context, c *Code) error
	Delete(ctx context.Context, id string) error
}
