package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/diezydiez/watchstore/internal/domain/purchase"
	"github.com/diezydiez/watchstore/internal/domain/sale"
)

type checkoutRequest struct {
	Items              []lineInput `json:"items"`
	CustomerName       string      `json:"customerName"`
	CustomerEmail      string      `json:"customerEmail"`
	Phone              string      `json:"phone"`
	ShippingAddress    string      `json:"shippingAddress"`
	ShippingLocationID string      `json:"shippingLocationId"`
	Note               string      `json:"note"`
	DiscountCode       string      `json:"discountCode"`
}

type purchaseResponse struct {
	ID              string                `json:"id"`
	Date            time.Time             `json:"date"`
	CustomerName    string                `json:"customerName"`
	CustomerEmail   string                `json:"customerEmail"`
	Phone           string                `json:"phone"`
	ShippingAddress string                `json:"shippingAddress"`
	City            string                `json:"city"`
	Note            string                `json:"note,omitempty"`
	Items           []sale.Item           `json:"items"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	Discount        *sale.AppliedDiscount `json:"discount,omitempty"`
	ShippingCost    decimal.Decimal       `json:"shippingCost"`
	Total           decimal.Decimal       `json:"total"`

	// DiscountError reports a discount code that did not apply; the checkout
	// still went through without it.
	DiscountError string `json:"discountError,omitempty"`
}

func toPurchaseResponse(p *purchase.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:              p.ID,
		Date:            p.Date,
		CustomerName:    p.CustomerName,
		CustomerEmail:   p.CustomerEmail,
		Phone:           p.Phone,
		ShippingAddress: p.ShippingAddress,
		City:            p.City,
		Note:            p.Note,
		Items:           p.Items,
		Subtotal:        p.Subtotal,
		Discount:        p.Discount,
		ShippingCost:    p.ShippingCost,
		Total:           p.Total,
	}
}

// Checkout records a guest purchase from the storefront. Stock is verified
// but not reserved.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustomerName == "" {
		respondError(w, http.StatusBadRequest, "customerName is required")
		return
	}

	res, err := h.purchases.Checkout(r.Context(), purchase.CheckoutRequest{
		Lines:              toLineInputs(req.Items),
		CustomerName:       req.CustomerName,
		CustomerEmail:      req.CustomerEmail,
		Phone:              req.Phone,
		ShippingAddress:    req.ShippingAddress,
		ShippingLocationID: req.ShippingLocationID,
		Note:               req.Note,
		DiscountCode:       req.DiscountCode,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := toPurchaseResponse(res.Purchase)
	if res.DiscountErr != nil {
		out.DiscountError = res.DiscountErr.Error()
	}
	respondJSON(w, http.StatusCreated, out)
}

// ListPurchases returns all pending unregistered purchases.
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.purchases.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]purchaseResponse, len(purchases))
	for i := range purchases {
		out[i] = toPurchaseResponse(&purchases[i])
	}
	respondJSON(w, http.StatusOK, out)
}

// GetPurchase returns one pending purchase.
func (h *Handler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	p, err := h.purchases.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPurchaseResponse(p))
}

// MatchPurchaseCustomer suggests an existing customer whose email matches the
// purchase, so conversion can pre-select it instead of creating a duplicate.
func (h *Handler) MatchPurchaseCustomer(w http.ResponseWriter, r *http.Request) {
	p, err := h.purchases.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	c, err := h.purchases.MatchCustomer(r.Context(), p.CustomerEmail)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if c == nil {
		respondJSON(w, http.StatusOK, map[string]any{"match": nil})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"match": toCustomerPayload(*c)})
}

type convertPurchaseRequest struct {
	CustomerID    string          `json:"customerId"`
	SellerID      string          `json:"sellerId"`
	CommissionPct decimal.Decimal `json:"commissionPercentage"`
}

// ConvertPurchase promotes a guest purchase into a formal sale.
func (h *Handler) ConvertPurchase(w http.ResponseWriter, r *http.Request) {
	var req convertPurchaseRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.purchases.Convert(r.Context(), purchase.ConvertRequest{
		PurchaseID:    chi.URLParam(r, "id"),
		CustomerID:    req.CustomerID,
		SellerID:      req.SellerID,
		CommissionPct: h.commissionOrDefault(req.CommissionPct),
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSaleResponse(s))
}

// DeletePurchase discards a pending purchase.
func (h *Handler) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	if err := h.purchases.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
