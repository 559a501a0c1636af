package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diezydiez/watchstore/internal/domain/customer"
)

type customerPayload struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	City    string `json:"city,omitempty"`
	Address string `json:"address,omitempty"`
}

func toCustomerPayload(c customer.Customer) customerPayload {
	return customerPayload{
		ID:      c.ID,
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		City:    c.City,
		Address: c.Address,
	}
}

// ListCustomers returns the customer ledger.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]customerPayload, len(customers))
	for i, c := range customers {
		out[i] = toCustomerPayload(c)
	}
	respondJSON(w, http.StatusOK, out)
}

// CreateCustomer adds a ledger entry.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerPayload
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	c := customer.Customer{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		City:    req.City,
		Address: req.Address,
	}
	id, err := h.customers.Create(r.Context(), &c)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	c.ID = id
	respondJSON(w, http.StatusCreated, toCustomerPayload(c))
}

// UpdateCustomer overwrites a ledger entry.
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerPayload
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	c := customer.Customer{
		ID:      chi.URLParam(r, "id"),
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		City:    req.City,
		Address: req.Address,
	}
	if err := h.customers.Update(r.Context(), &c); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCustomerPayload(c))
}

// DeleteCustomer removes a ledger entry. Past sales keep the denormalized
// customer name.
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sellerPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// ListSellers returns the seller accounts eligible for sale assignment.
func (h *Handler) ListSellers(w http.ResponseWriter, r *http.Request) {
	sellers, err := h.sellers.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]sellerPayload, len(sellers))
	for i, s := range sellers {
		out[i] = sellerPayload{ID: s.ID, Name: s.Name, Role: string(s.Role)}
	}
	respondJSON(w, http.StatusOK, out)
}
