package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEffectivePrice(t *testing.T) {
	promo := decimal.NewFromInt(80)
	higherPromo := decimal.NewFromInt(150)
	zero := decimal.Zero

	tests := []struct {
		name string
		p    Product
		want decimal.Decimal
	}{
		{
			name: "no promo uses sale price",
			p:    Product{SalePrice: decimal.NewFromInt(100)},
			want: decimal.NewFromInt(100),
		},
		{
			name: "promo lower than sale price wins",
			p:    Product{SalePrice: decimal.NewFromInt(100), PromoPrice: &promo},
			want: decimal.NewFromInt(80),
		},
		{
			name: "promo above sale price is ignored",
			p:    Product{SalePrice: decimal.NewFromInt(100), PromoPrice: &higherPromo},
			want: decimal.NewFromInt(100),
		},
		{
			name: "zero promo is ignored",
			p:    Product{SalePrice: decimal.NewFromInt(100), PromoPrice: &zero},
			want: decimal.NewFromInt(100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(tt.p.EffectivePrice()),
				"expected %s, got %s", tt.want, tt.p.EffectivePrice())
		})
	}
}
