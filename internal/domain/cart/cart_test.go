package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diezydiez/watchstore/internal/domain/product"
)

type mockCatalog struct {
	byID map[string]product.Product
}

func (m *mockCatalog) List(context.Context) ([]product.Product, error)       { return nil, nil }
func (m *mockCatalog) ListPublic(context.Context) ([]product.Product, error) { return nil, nil }
func (m *mockCatalog) Upsert(context.Context, *product.Product) error        { return nil }
func (m *mockCatalog) Delete(context.Context, string) error                  { return nil }

func (m *mockCatalog) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockCatalog) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func newCatalog(products ...product.Product) *mockCatalog {
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockCatalog{byID: byID}
}

func TestAddMergesExistingLine(t *testing.T) {
	c := New()
	c.Add("watch-1", 1)
	c.Add("watch-1", 2)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestAddClampsQuantity(t *testing.T) {
	c := New()
	c.Add("watch-1", 0)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	c := New()
	c.Add("watch-1", 2)
	c.Add("watch-2", 1)

	c.UpdateQuantity("watch-1", 0)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "watch-2", lines[0].ProductID)
}

func TestRemoveAndClear(t *testing.T) {
	c := New()
	c.Add("a", 1)
	c.Add("b", 1)

	c.Remove("a")
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestTotalUsesLivePrices(t *testing.T) {
	promo := decimal.NewFromInt(80)
	catalog := newCatalog(
		product.Product{ID: "a", SalePrice: decimal.NewFromInt(100), PromoPrice: &promo},
		product.Product{ID: "b", SalePrice: decimal.NewFromInt(50)},
	)

	c := New()
	c.Add("a", 2)
	c.Add("b", 1)

	total, err := c.Total(context.Background(), catalog)
	require.NoError(t, err)
	// 2 * 80 (promo) + 1 * 50 = 210
	assert.True(t, decimal.NewFromInt(210).Equal(total), "got %s", total)
}

func TestTotalSkipsVanishedProducts(t *testing.T) {
	catalog := newCatalog(product.Product{ID: "a", SalePrice: decimal.NewFromInt(100)})

	c := New()
	c.Add("a", 1)
	c.Add("gone", 4)

	total, err := c.Total(context.Background(), catalog)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(total), "got %s", total)
}

func TestTotalEmptyCart(t *testing.T) {
	total, err := New().Total(context.Background(), newCatalog())
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}
