// Package cart implements the shopper's in-memory cart. A cart lives for one
// session only: it is never persisted and is cleared on successful checkout.
package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/diezydiez/watchstore/internal/domain/product"
	"github.com/diezydiez/watchstore/internal/money"
)

// Line is a (product, quantity) pair. Prices are intentionally absent: totals
// are always derived from the live catalog so a price change between add-time
// and checkout is reflected immediately.
type Line struct {
	ProductID string
	Quantity  int
}

// Cart is an ordered collection of lines. Not safe for concurrent use; a cart
// belongs to exactly one shopper session.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts quantity units of a product into the cart, merging with an
// existing line for the same product. Quantities below 1 are clamped to 1.
func (c *Cart) Add(productID string, quantity int) {
	quantity = money.ClampQuantity(quantity)
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity += quantity
			return
		}
	}
	c.lines = append(c.lines, Line{ProductID: productID, Quantity: quantity})
}

// UpdateQuantity sets the quantity for a product's line. A quantity of zero
// or less removes the line.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity = quantity
			return
		}
	}
}

// Remove drops the line for the given product, if present.
func (c *Cart) Remove(productID string) {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Lines returns a copy of the cart's lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Total computes the running total against current catalog prices. Products
// that have disappeared from the catalog contribute nothing; checkout performs
// the authoritative availability check.
func (c *Cart) Total(ctx context.Context, catalog product.Repository) (decimal.Decimal, error) {
	if len(c.lines) == 0 {
		return decimal.Zero, nil
	}

	ids := make([]string, len(c.lines))
	for i, l := range c.lines {
		ids[i] = l.ProductID
	}

	fetched, err := catalog.GetByIDs(ctx, ids)
	if err != nil {
		return decimal.Zero, err
	}

	byID := make(map[string]*product.Product, len(fetched))
	for i := range fetched {
		byID[fetched[i].ID] = &fetched[i]
	}

	total := decimal.Zero
	for _, l := range c.lines {
		p, ok := byID[l.ProductID]
		if !ok {
			continue
		}
		qty := decimal.NewFromInt(int64(l.Quantity))
		total = total.Add(p.EffectivePrice().Mul(qty))
	}
	return total, nil
}
