package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diezydiez/watchstore/internal/domain/customer"
	"github.com/diezydiez/watchstore/internal/domain/discount"
	"github.com/diezydiez/watchstore/internal/domain/invoice"
	"github.com/diezydiez/watchstore/internal/domain/product"
	"github.com/diezydiez/watchstore/internal/domain/purchase"
	"github.com/diezydiez/watchstore/internal/domain/sale"
	"github.com/diezydiez/watchstore/internal/domain/seller"
	"github.com/diezydiez/watchstore/internal/domain/shipping"
)

// --- In-memory fakes ---

type memProducts struct {
	byID map[string]*product.Product
}

func (m *memProducts) List(context.Context) ([]product.Product, error) {
	var out []product.Product
	for _, p := range m.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memProducts) ListPublic(context.Context) ([]product.Product, error) {
	var out []product.Product
	for _, p := range m.byID {
		if p.IsPublic {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memProducts) Upsert(_ context.Context, p *product.Product) error {
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memProducts) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return product.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memSales struct {
	products  *memProducts
	purchases *memPurchases
	byID      map[string]*sale.Sale
}

func (m *memSales) applyStock(changes []sale.StockChange, sign int) error {
	if sign < 0 {
		for _, c := range changes {
			p, ok := m.products.byID[c.ProductID]
			if !ok {
				return &sale.ProductUnavailableError{ProductID: c.ProductID}
			}
			if p.Quantity < c.Quantity {
				return &sale.InsufficientStockError{
					ProductID: c.ProductID, ProductName: p.Name,
					Requested: c.Quantity, Available: p.Quantity,
				}
			}
		}
	}
	for _, c := range changes {
		m.products.byID[c.ProductID].Quantity += sign * c.Quantity
	}
	return nil
}

func (m *memSales) Create(_ context.Context, s *sale.Sale, dec []sale.StockChange) error {
	if err := m.applyStock(dec, -1); err != nil {
		return err
	}
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *memSales) Get(_ context.Context, id string) (*sale.Sale, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, sale.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSales) List(context.Context) ([]sale.Sale, error) {
	var out []sale.Sale
	for _, s := range m.byID {
		out = append(out, *s)
	}
	return out, nil
}

func (m *memSales) ListBySeller(_ context.Context, sellerID string) ([]sale.Sale, error) {
	var out []sale.Sale
	for _, s := range m.byID {
		if s.SellerID == sellerID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memSales) Update(_ context.Context, id string, fn sale.UpdateFunc) (*sale.Sale, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, sale.ErrNotFound
	}
	cp := *s
	restock, err := fn(&cp)
	if err != nil {
		return nil, err
	}
	if err := m.applyStock(restock, 1); err != nil {
		return nil, err
	}
	m.byID[id] = &cp
	out := cp
	return &out, nil
}

func (m *memSales) Delete(_ context.Context, id string, restock []sale.StockChange) error {
	if _, ok := m.byID[id]; !ok {
		return sale.ErrNotFound
	}
	if err := m.applyStock(restock, 1); err != nil {
		return err
	}
	delete(m.byID, id)
	return nil
}

func (m *memSales) ConvertPurchase(_ context.Context, purchaseID string, s *sale.Sale, dec []sale.StockChange) error {
	if _, ok := m.purchases.byID[purchaseID]; !ok {
		return purchase.ErrAlreadyConverted
	}
	if err := m.applyStock(dec, -1); err != nil {
		return err
	}
	delete(m.purchases.byID, purchaseID)
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

type memPurchases struct {
	byID map[string]*purchase.Purchase
}

func (m *memPurchases) Create(_ context.Context, p *purchase.Purchase) error {
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPurchases) GetByID(_ context.Context, id string) (*purchase.Purchase, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, purchase.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPurchases) List(context.Context) ([]purchase.Purchase, error) {
	var out []purchase.Purchase
	for _, p := range m.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memPurchases) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return purchase.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memCustomers struct {
	byID map[string]customer.Customer
}

func (m *memCustomers) List(context.Context) ([]customer.Customer, error) {
	var out []customer.Customer
	for _, c := range m.byID {
		out = append(out, c)
	}
	return out, nil
}

func (m *memCustomers) GetByID(_ context.Context, id string) (*customer.Customer, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return &c, nil
}

func (m *memCustomers) FindByEmail(_ context.Context, email string) (*customer.Customer, error) {
	for _, c := range m.byID {
		if strings.EqualFold(c.Email, email) {
			return &c, nil
		}
	}
	return nil, customer.ErrNotFound
}

func (m *memCustomers) Create(_ context.Context, c *customer.Customer) (string, error) {
	if c.ID == "" {
		c.ID = "generated"
	}
	m.byID[c.ID] = *c
	return c.ID, nil
}

func (m *memCustomers) Update(_ context.Context, c *customer.Customer) error {
	if _, ok := m.byID[c.ID]; !ok {
		return customer.ErrNotFound
	}
	m.byID[c.ID] = *c
	return nil
}

func (m *memCustomers) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return customer.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memSellers struct {
	byID map[string]seller.Seller
}

func (m *memSellers) List(context.Context) ([]seller.Seller, error) {
	var out []seller.Seller
	for _, s := range m.byID {
		out = append(out, s)
	}
	return out, nil
}

func (m *memSellers) GetByID(_ context.Context, id string) (*seller.Seller, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, seller.ErrNotFound
	}
	return &s, nil
}

type memShipping struct {
	byID map[string]shipping.Location
}

func (m *memShipping) List(context.Context) ([]shipping.Location, error) {
	var out []shipping.Location
	for _, l := range m.byID {
		out = append(out, l)
	}
	return out, nil
}

func (m *memShipping) GetByID(_ context.Context, id string) (*shipping.Location, error) {
	l, ok := m.byID[id]
	if !ok {
		return nil, shipping.ErrNotFound
	}
	return &l, nil
}

func (m *memShipping) Create(_ context.Context, l *shipping.Location) (string, error) {
	if l.ID == "" {
		l.ID = "generated"
	}
	m.byID[l.ID] = *l
	return l.ID, nil
}

func (m *memShipping) Update(_ context.Context, l *shipping.Location) error {
	if _, ok := m.byID[l.ID]; !ok {
		return shipping.ErrNotFound
	}
	m.byID[l.ID] = *l
	return nil
}

type memDiscounts struct {
	byCode map[string]discount.Code
}

func (m *memDiscounts) FindByID(_ context.Context, code string) (*discount.Code, error) {
	c, ok := m.byCode[strings.ToUpper(code)]
	if !ok {
		return nil, discount.ErrInvalidCode
	}
	return &c, nil
}

func (m *memDiscounts) List(context.Context) ([]discount.Code, error) {
	var out []discount.Code
	for _, c := range m.byCode {
		out = append(out, c)
	}
	return out, nil
}

func (m *memDiscounts) Upsert(_ context.Context, c *discount.Code) error {
	m.byCode[strings.ToUpper(c.ID)] = *c
	return nil
}

func (m *memDiscounts) Delete(_ context.Context, id string) error {
	if _, ok := m.byCode[strings.ToUpper(id)]; !ok {
		return discount.ErrInvalidCode
	}
	delete(m.byCode, strings.ToUpper(id))
	return nil
}

// --- Fixture ---

type fixture struct {
	products *memProducts
	sales    *memSales
	server   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	products := &memProducts{byID: map[string]*product.Product{
		"A": {
			ID: "A", Name: "Casio F91W", Category: "digital",
			CostPrice: decimal.NewFromInt(40), SalePrice: decimal.NewFromInt(100),
			Quantity: 10, IsPublic: true,
		},
		"B": {
			ID: "B", Name: "Invicta Pro Diver", Category: "buceo",
			CostPrice: decimal.NewFromInt(150), SalePrice: decimal.NewFromInt(320),
			Quantity: 4, IsPublic: false,
		},
	}}
	purchases := &memPurchases{byID: make(map[string]*purchase.Purchase)}
	sales := &memSales{products: products, purchases: purchases, byID: make(map[string]*sale.Sale)}
	customers := &memCustomers{byID: map[string]customer.Customer{
		"c1": {ID: "c1", Name: "Laura Mejía", Email: "laura@example.com"},
	}}
	sellers := &memSellers{byID: map[string]seller.Seller{
		"s1": {ID: "s1", Name: "Marta López", Role: seller.RoleSeller},
	}}
	locations := &memShipping{byID: map[string]shipping.Location{
		"tgu": {ID: "tgu", City: "Tegucigalpa", Cost: decimal.NewFromInt(20)},
	}}
	discounts := &memDiscounts{byCode: map[string]discount.Code{
		"SAVE10": {
			ID: "SAVE10", Percentage: decimal.NewFromInt(10),
			StartDate: time.Now().Add(-time.Hour), EndDate: time.Now().Add(time.Hour),
		},
	}}

	validator := discount.NewValidator(discounts)
	saleService := sale.NewService(products, validator, sales, customers, sellers, locations)
	purchaseService := purchase.NewService(purchases, sales, saleService, customers, sellers, locations)

	h := NewHandler(
		products, saleService, sales, purchaseService,
		customers, sellers, locations, discounts,
		invoice.Settings{StoreName: "Relojería El Tiempo"},
	).WithDefaultCommission(decimal.NewFromInt(50))

	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	return &fixture{products: products, sales: sales, server: srv}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// --- Tests ---

func TestListPublicProducts_HidesUnpublished(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	products := decodeBody[[]publicProductResponse](t, resp)
	require.Len(t, products, 1)
	assert.Equal(t, "A", products[0].ID)
}

func TestCreateSale_EndToEnd(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/admin/sales", createSaleRequest{
		Items:              []lineInput{{ProductID: "A", Quantity: 2}},
		CustomerID:         "c1",
		SellerID:           "s1",
		CommissionPct:      decimal.NewFromInt(50),
		ShippingLocationID: "tgu",
		ShippingAddress:    "Col. Palmira, casa 12",
		DiscountCode:       "SAVE10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	s := decodeBody[saleResponse](t, resp)
	assert.True(t, decimal.NewFromInt(200).Equal(s.Total))
	assert.Equal(t, sale.StatusPending, s.Status)
	assert.Equal(t, "Laura Mejía", s.CustomerName)
	assert.Empty(t, s.DiscountError)
	assert.Equal(t, 8, f.products.byID["A"].Quantity)
}

func TestCreateSale_OmittedCommissionUsesDefault(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/admin/sales", createSaleRequest{
		Items:              []lineInput{{ProductID: "A", Quantity: 2}},
		CustomerID:         "c1",
		SellerID:           "s1",
		ShippingLocationID: "tgu",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	s := decodeBody[saleResponse](t, resp)
	assert.True(t, decimal.NewFromInt(50).Equal(s.Commission.Percentage))
	assert.True(t, decimal.NewFromInt(60).Equal(s.Commission.Amount), "50%% of 120 profit")
}

func TestCreateSale_InsufficientStockIs422(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/admin/sales", createSaleRequest{
		Items:              []lineInput{{ProductID: "A", Quantity: 99}},
		CustomerID:         "c1",
		SellerID:           "s1",
		ShippingLocationID: "tgu",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, 10, f.products.byID["A"].Quantity)
}

func TestCreateSale_EmptyItemsIs400(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/admin/sales", createSaleRequest{
		CustomerID: "c1", SellerID: "s1", ShippingLocationID: "tgu",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateSale_UnknownCustomerIs404(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/admin/sales", createSaleRequest{
		Items:              []lineInput{{ProductID: "A", Quantity: 1}},
		CustomerID:         "nobody",
		SellerID:           "s1",
		ShippingLocationID: "tgu",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRegisterPayment_StatusCodes(t *testing.T) {
	f := newFixture(t)

	created := decodeBody[saleResponse](t, f.do(t, http.MethodPost, "/admin/sales", createSaleRequest{
		Items:              []lineInput{{ProductID: "A", Quantity: 2}},
		CustomerID:         "c1",
		SellerID:           "s1",
		ShippingLocationID: "tgu",
	})) // total 220

	resp := f.do(t, http.MethodPost, "/admin/sales/"+created.ID+"/payments", registerPaymentRequest{
		Amount: decimal.NewFromInt(100), Method: "partial",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	s := decodeBody[saleResponse](t, resp)
	assert.Equal(t, sale.StatusPartial, s.Status)

	// Over the balance: 422.
	resp = f.do(t, http.MethodPost, "/admin/sales/"+created.ID+"/payments", registerPaymentRequest{
		Amount: decimal.NewFromInt(500), Method: "partial",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Non-positive: 400.
	resp = f.do(t, http.MethodPost, "/admin/sales/"+created.ID+"/payments", registerPaymentRequest{
		Amount: decimal.Zero, Method: "partial",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown sale: 404.
	resp = f.do(t, http.MethodPost, "/admin/sales/missing/payments", registerPaymentRequest{
		Amount: decimal.NewFromInt(10), Method: "partial",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelSale_ConflictWhenFinal(t *testing.T) {
	f := newFixture(t)

	created := decodeBody[saleResponse](t, f.do(t, http.MethodPost, "/admin/sales", createSaleRequest{
		Items:              []lineInput{{ProductID: "A", Quantity: 3}},
		CustomerID:         "c1",
		SellerID:           "s1",
		ShippingLocationID: "tgu",
	}))
	assert.Equal(t, 7, f.products.byID["A"].Quantity)

	resp := f.do(t, http.MethodPost, "/admin/sales/"+created.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 10, f.products.byID["A"].Quantity)

	resp = f.do(t, http.MethodPost, "/admin/sales/"+created.ID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCheckoutAndConvert(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/checkout", checkoutRequest{
		Items:              []lineInput{{ProductID: "A", Quantity: 2}},
		CustomerName:       "Juan Pérez",
		CustomerEmail:      "laura@example.com",
		ShippingAddress:    "Barrio El Centro",
		ShippingLocationID: "tgu",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	p := decodeBody[purchaseResponse](t, resp)

	// Guest checkout leaves stock untouched.
	assert.Equal(t, 10, f.products.byID["A"].Quantity)

	// The matching endpoint finds the existing customer by email.
	resp = f.do(t, http.MethodGet, "/admin/purchases/"+p.ID+"/customer-match", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	match := decodeBody[map[string]*customerPayload](t, resp)
	require.NotNil(t, match["match"])
	assert.Equal(t, "c1", match["match"].ID)

	resp = f.do(t, http.MethodPost, "/admin/purchases/"+p.ID+"/convert", convertPurchaseRequest{
		CustomerID: "c1", SellerID: "s1", CommissionPct: decimal.NewFromInt(50),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	s := decodeBody[saleResponse](t, resp)
	assert.Equal(t, sale.StatusPending, s.Status)
	assert.Equal(t, 8, f.products.byID["A"].Quantity)

	// Converting again: the purchase is gone.
	resp = f.do(t, http.MethodPost, "/admin/purchases/"+p.ID+"/convert", convertPurchaseRequest{
		CustomerID: "c1", SellerID: "s1",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCheckout_UnpublishedProductIs422(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/checkout", checkoutRequest{
		Items:              []lineInput{{ProductID: "B", Quantity: 1}},
		CustomerName:       "Juan Pérez",
		ShippingLocationID: "tgu",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestSaleInvoice_RendersText(t *testing.T) {
	f := newFixture(t)

	created := decodeBody[saleResponse](t, f.do(t, http.MethodPost, "/admin/sales", createSaleRequest{
		Items:              []lineInput{{ProductID: "A", Quantity: 1}},
		CustomerID:         "c1",
		SellerID:           "s1",
		ShippingLocationID: "tgu",
	}))

	resp := f.do(t, http.MethodGet, "/admin/sales/"+created.ID+"/invoice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	buf := new(bytes.Buffer)
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Relojería El Tiempo")
	assert.Contains(t, out, "Cliente: Laura Mejía")
	assert.Contains(t, out, "Total: L. 120.00")
}

func TestValidateDiscountCode(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/discount-codes/save10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[discountCodePayload](t, resp)
	assert.Equal(t, "SAVE10", body.Code)
	assert.True(t, decimal.NewFromInt(10).Equal(body.Percentage))

	resp = f.do(t, http.MethodGet, "/discount-codes/EXPIRED", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUpsertProduct_Validation(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/admin/products", productPayload{Name: "sin id"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/admin/products", productPayload{
		ID: "C", Name: "Orient Bambino", SalePrice: decimal.NewFromInt(390),
		CostPrice: decimal.NewFromInt(180), Quantity: 5, IsPublic: true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, f.products.byID, "C")
}
