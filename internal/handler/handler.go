// Package handler exposes the store over HTTP. Routes are grouped into the
// public storefront surface and the back-office surface; both speak JSON.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/diezydiez/watchstore/internal/domain/customer"
	"github.com/diezydiez/watchstore/internal/domain/discount"
	"github.com/diezydiez/watchstore/internal/domain/invoice"
	"github.com/diezydiez/watchstore/internal/domain/product"
	"github.com/diezydiez/watchstore/internal/domain/purchase"
	"github.com/diezydiez/watchstore/internal/domain/sale"
	"github.com/diezydiez/watchstore/internal/domain/seller"
	"github.com/diezydiez/watchstore/internal/domain/shipping"
)

// Handler wires the domain services into HTTP endpoints.
type Handler struct {
	products  product.Repository
	sales     *sale.Service
	saleRepo  sale.Repository
	purchases *purchase.Service
	customers customer.Directory
	sellers   seller.Directory
	shipping  shipping.Repository
	discounts discount.Repository
	validator *discount.Validator
	invoice   invoice.Settings

	defaultCommission decimal.Decimal
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	sales *sale.Service,
	saleRepo sale.Repository,
	purchases *purchase.Service,
	customers customer.Directory,
	sellers seller.Directory,
	shippingRepo shipping.Repository,
	discounts discount.Repository,
	invoiceSettings invoice.Settings,
) *Handler {
	return &Handler{
		products:  products,
		sales:     sales,
		saleRepo:  saleRepo,
		purchases: purchases,
		customers: customers,
		sellers:   sellers,
		shipping:  shippingRepo,
		discounts: discounts,
		validator: discount.NewValidator(discounts),
		invoice:   invoiceSettings,
	}
}

// WithDefaultCommission sets the commission percentage applied when a sale or
// conversion request leaves the percentage out. Zero counts as left out; the
// back office always sends an explicit value when it means something else.
func (h *Handler) WithDefaultCommission(pct decimal.Decimal) *Handler {
	h.defaultCommission = pct
	return h
}

func (h *Handler) commissionOrDefault(pct decimal.Decimal) decimal.Decimal {
	if pct.IsZero() {
		return h.defaultCommission
	}
	return pct
}

// Routes mounts every endpoint on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, http.StatusNotFound, "no route for "+req.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Public storefront.
	r.Get("/products", h.ListPublicProducts)
	r.Get("/products/{id}", h.GetProduct)
	r.Post("/checkout", h.Checkout)
	r.Get("/shipping-locations", h.ListShippingLocations)
	r.Get("/discount-codes/{code}", h.ValidateDiscountCode)

	// Back office.
	r.Route("/admin", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Post("/products", h.UpsertProduct)
		r.Delete("/products/{id}", h.DeleteProduct)

		r.Post("/sales", h.CreateSale)
		r.Get("/sales", h.ListSales)
		r.Get("/sales/{id}", h.GetSale)
		r.Put("/sales/{id}", h.ModifySale)
		r.Delete("/sales/{id}", h.DeleteSale)
		r.Post("/sales/{id}/payments", h.RegisterPayment)
		r.Post("/sales/{id}/cancel", h.CancelSale)
		r.Get("/sales/{id}/invoice", h.SaleInvoice)

		r.Get("/purchases", h.ListPurchases)
		r.Get("/purchases/{id}", h.GetPurchase)
		r.Get("/purchases/{id}/customer-match", h.MatchPurchaseCustomer)
		r.Post("/purchases/{id}/convert", h.ConvertPurchase)
		r.Delete("/purchases/{id}", h.DeletePurchase)

		r.Get("/customers", h.ListCustomers)
		r.Post("/customers", h.CreateCustomer)
		r.Put("/customers/{id}", h.UpdateCustomer)
		r.Delete("/customers/{id}", h.DeleteCustomer)

		r.Get("/sellers", h.ListSellers)

		r.Post("/shipping-locations", h.CreateShippingLocation)
		r.Put("/shipping-locations/{id}", h.UpdateShippingLocation)

		r.Get("/discount-codes", h.ListDiscountCodes)
		r.Post("/discount-codes", h.UpsertDiscountCode)
		r.Delete("/discount-codes/{id}", h.DeleteDiscountCode)
	})

	return r
}
