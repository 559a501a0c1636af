package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "L. 0.00"},
		{"5", "L. 5.00"},
		{"1234.5", "L. 1,234.50"},
		{"1234567.89", "L. 1,234,567.89"},
		{"999.999", "L. 1,000.00"},
		{"-250.75", "-L. 250.75"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d := decimal.RequireFromString(tt.in)
			assert.Equal(t, tt.want, Format(d))
		})
	}
}

func TestClampPercent(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(ClampPercent(decimal.NewFromInt(-5))))
	assert.True(t, decimal.NewFromInt(100).Equal(ClampPercent(decimal.NewFromInt(150))))
	assert.True(t, decimal.NewFromInt(50).Equal(ClampPercent(decimal.NewFromInt(50))))
}

func TestClampQuantity(t *testing.T) {
	assert.Equal(t, 1, ClampQuantity(0))
	assert.Equal(t, 1, ClampQuantity(-3))
	assert.Equal(t, 7, ClampQuantity(7))
}
