package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/diezydiez/watchstore/internal/domain/discount"
)

type discountCodePayload struct {
	Code       string          `json:"code"`
	Percentage decimal.Decimal `json:"percentage"`
	StartDate  time.Time       `json:"startDate"`
	EndDate    time.Time       `json:"endDate"`
}

func toDiscountCodePayload(c discount.Code) discountCodePayload {
	return discountCodePayload{
		Code:       c.ID,
		Percentage: c.Percentage,
		StartDate:  c.StartDate,
		EndDate:    c.EndDate,
	}
}

// ValidateDiscountCode checks a code on behalf of the storefront so the
// shopper sees the percentage before checkout. Unknown or out-of-window codes
// answer 422.
func (h *Handler) ValidateDiscountCode(w http.ResponseWriter, r *http.Request) {
	c, err := h.validator.Validate(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toDiscountCodePayload(*c))
}

// ListDiscountCodes returns all promotional codes, active or not.
func (h *Handler) ListDiscountCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.discounts.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]discountCodePayload, len(codes))
	for i, c := range codes {
		out[i] = toDiscountCodePayload(c)
	}
	respondJSON(w, http.StatusOK, out)
}

// UpsertDiscountCode creates a code or overwrites its percentage and window.
func (h *Handler) UpsertDiscountCode(w http.ResponseWriter, r *http.Request) {
	var req discountCodePayload
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.Percentage.IsNegative() || req.Percentage.GreaterThan(decimal.NewFromInt(100)) {
		respondError(w, http.StatusBadRequest, "percentage must be between 0 and 100")
		return
	}
	if req.EndDate.Before(req.StartDate) {
		respondError(w, http.StatusBadRequest, "endDate must not precede startDate")
		return
	}

	c := discount.Code{
		ID:         req.Code,
		Percentage: req.Percentage,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	}
	if err := h.discounts.Upsert(r.Context(), &c); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toDiscountCodePayload(c))
}

// DeleteDiscountCode removes a code. Sales that already froze its amount are
// unaffected.
func (h *Handler) DeleteDiscountCode(w http.ResponseWriter, r *http.Request) {
	if err := h.discounts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
