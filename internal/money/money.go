// Package money holds currency formatting and numeric clamping helpers shared
// by the sale engine, invoices, and HTTP handlers.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PaymentEpsilon is the tolerance applied when comparing a payment against the
// outstanding balance, to absorb 2-decimal rounding drift.
var PaymentEpsilon = decimal.New(1, -2)

// Format renders an amount as Honduran lempira, e.g. "L. 1,234.50".
func Format(d decimal.Decimal) string {
	s := d.Round(2).StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("L. ")
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	b.WriteString(fracPart)
	return b.String()
}

// ClampPercent restricts a percentage to the [0, 100] range.
func ClampPercent(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

// ClampQuantity restricts an item quantity to be at least 1.
func ClampQuantity(qty int) int {
	if qty < 1 {
		return 1
	}
	return qty
}
