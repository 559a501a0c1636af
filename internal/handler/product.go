package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/diezydiez/watchstore/internal/domain/product"
)

type productPayload struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Category   string           `json:"category"`
	CostPrice  decimal.Decimal  `json:"costPrice"`
	SalePrice  decimal.Decimal  `json:"salePrice"`
	PromoPrice *decimal.Decimal `json:"promoPrice,omitempty"`
	Quantity   int              `json:"quantity"`
	IsPublic   bool             `json:"isPublic"`
	ISV        bool             `json:"isv"`
}

type publicProductResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Category      string           `json:"category"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Quantity      int              `json:"quantity"`
}

func toProductPayload(p product.Product) productPayload {
	return productPayload{
		ID:         p.ID,
		Name:       p.Name,
		Category:   p.Category,
		CostPrice:  p.CostPrice,
		SalePrice:  p.SalePrice,
		PromoPrice: p.PromoPrice,
		Quantity:   p.Quantity,
		IsPublic:   p.IsPublic,
		ISV:        p.ISV,
	}
}

// toPublicProduct hides cost and visibility fields and surfaces the price a
// shopper actually pays, with the list price alongside when a promo applies.
func toPublicProduct(p product.Product) publicProductResponse {
	resp := publicProductResponse{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Price:    p.EffectivePrice(),
		Quantity: p.Quantity,
	}
	if !resp.Price.Equal(p.SalePrice) {
		original := p.SalePrice
		resp.OriginalPrice = &original
	}
	return resp
}

// ListPublicProducts returns the storefront catalog: published products only,
// without cost prices.
func (h *Handler) ListPublicProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListPublic(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]publicProductResponse, len(products))
	for i, p := range products {
		out[i] = toPublicProduct(p)
	}
	respondJSON(w, http.StatusOK, out)
}

// GetProduct returns one storefront product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if !p.IsPublic {
		respondError(w, http.StatusNotFound, product.ErrNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, toPublicProduct(*p))
}

// ListProducts returns the full catalog for the back office, costs included.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]productPayload, len(products))
	for i, p := range products {
		out[i] = toProductPayload(p)
	}
	respondJSON(w, http.StatusOK, out)
}

// UpsertProduct creates or overwrites a catalog entry.
func (h *Handler) UpsertProduct(w http.ResponseWriter, r *http.Request) {
	var req productPayload
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "id and name are required")
		return
	}
	if req.Quantity < 0 {
		respondError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	p := product.Product{
		ID:         req.ID,
		Name:       req.Name,
		Category:   req.Category,
		CostPrice:  req.CostPrice,
		SalePrice:  req.SalePrice,
		PromoPrice: req.PromoPrice,
		Quantity:   req.Quantity,
		IsPublic:   req.IsPublic,
		ISV:        req.ISV,
	}
	if err := h.products.Upsert(r.Context(), &p); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductPayload(p))
}

// DeleteProduct removes a catalog entry.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
