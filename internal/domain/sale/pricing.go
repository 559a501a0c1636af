package sale

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Quote is the priced breakdown of a set of sale items. All amounts are
// rounded to 2 decimal places.
//
// The canonical formulas, applied uniformly everywhere a sale is priced:
//
//	subtotal = Σ unitPrice × qty
//	total    = subtotal − discount + shipping + extraCost
//	profit   = Σ (unitPrice − costPrice) × qty − discount
//
// Profit excludes shipping and extra costs.
type Quote struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	ShippingCost   decimal.Decimal
	ExtraCost      decimal.Decimal
	Total          decimal.Decimal
	Profit         decimal.Decimal
}

// ComputeQuote prices the given items with an optional discount.
func ComputeQuote(items []Item, shippingCost, extraCost decimal.Decimal, discount *AppliedDiscount) Quote {
	subtotal := decimal.Zero
	grossProfit := decimal.Zero
	for _, it := range items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		subtotal = subtotal.Add(it.UnitPrice.Mul(qty))
		grossProfit = grossProfit.Add(it.UnitPrice.Sub(it.CostPrice).Mul(qty))
	}

	discountAmount := decimal.Zero
	if discount != nil {
		discountAmount = discount.Amount
	}

	total := subtotal.Sub(discountAmount).Add(shippingCost).Add(extraCost)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Quote{
		Subtotal:       subtotal.Round(2),
		DiscountAmount: discountAmount.Round(2),
		ShippingCost:   shippingCost.Round(2),
		ExtraCost:      extraCost.Round(2),
		Total:          total.Round(2),
		Profit:         grossProfit.Sub(discountAmount).Round(2),
	}
}

// CommissionFor computes a seller commission from the sale's frozen profit.
// Profit is never recomputed from line items after creation; reassigning a
// seller or changing the percentage reuses the stored profit.
func CommissionFor(profit, percentage decimal.Decimal) Commission {
	return Commission{
		Percentage: percentage,
		Amount:     profit.Mul(percentage).Div(hundred).Round(2),
	}
}
