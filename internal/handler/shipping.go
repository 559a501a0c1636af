package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/diezydiez/watchstore/internal/domain/shipping"
)

type locationPayload struct {
	ID   string          `json:"id,omitempty"`
	City string          `json:"city"`
	Cost decimal.Decimal `json:"cost"`
}

// ListShippingLocations returns the deliverable cities with their costs. The
// storefront uses this to populate the checkout city selector.
func (h *Handler) ListShippingLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.shipping.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]locationPayload, len(locations))
	for i, l := range locations {
		out[i] = locationPayload{ID: l.ID, City: l.City, Cost: l.Cost}
	}
	respondJSON(w, http.StatusOK, out)
}

// CreateShippingLocation adds a deliverable city.
func (h *Handler) CreateShippingLocation(w http.ResponseWriter, r *http.Request) {
	var req locationPayload
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.City == "" {
		respondError(w, http.StatusBadRequest, "city is required")
		return
	}
	if req.Cost.IsNegative() {
		respondError(w, http.StatusBadRequest, "cost must not be negative")
		return
	}

	l := shipping.Location{City: req.City, Cost: req.Cost}
	id, err := h.shipping.Create(r.Context(), &l)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, locationPayload{ID: id, City: l.City, Cost: l.Cost})
}

// UpdateShippingLocation changes a city's name or cost. Existing sales keep
// the shipping cost frozen at their creation.
func (h *Handler) UpdateShippingLocation(w http.ResponseWriter, r *http.Request) {
	var req locationPayload
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.City == "" {
		respondError(w, http.StatusBadRequest, "city is required")
		return
	}
	if req.Cost.IsNegative() {
		respondError(w, http.StatusBadRequest, "cost must not be negative")
		return
	}

	l := shipping.Location{ID: chi.URLParam(r, "id"), City: req.City, Cost: req.Cost}
	if err := h.shipping.Update(r.Context(), &l); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, locationPayload{ID: l.ID, City: l.City, Cost: l.Cost})
}
