package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a watch in the catalog. Quantity is the available stock;
// it is decremented by the sale engine and must never go negative.
type Product struct {
	ID         string
	Name       string
	Category   string
	CostPrice  decimal.Decimal
	SalePrice  decimal.Decimal
	PromoPrice *decimal.Decimal
	Quantity   int
	IsPublic   bool
	ISV        bool
}

// EffectivePrice returns the price a shopper pays right now: the promo price
// when one is set and lower than the list price, otherwise the sale price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.PromoPrice != nil && p.PromoPrice.IsPositive() && p.PromoPrice.LessThan(p.SalePrice) {
		return *p.PromoPrice
	}
	return p.SalePrice
}

// Repository defines catalog persistence operations.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	ListPublic(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Upsert(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
