package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/diezydiez/watchstore/internal/domain/customer"
	"github.com/diezydiez/watchstore/internal/domain/discount"
	"github.com/diezydiez/watchstore/internal/domain/product"
	"github.com/diezydiez/watchstore/internal/domain/purchase"
	"github.com/diezydiez/watchstore/internal/domain/sale"
	"github.com/diezydiez/watchstore/internal/domain/seller"
	"github.com/diezydiez/watchstore/internal/domain/shipping"
)

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// respondDomainError maps domain errors to HTTP statuses: malformed input is
// 400, missing resources are 404, terminal-state violations are 409, and
// business-rule rejections the client can act on are 422. Anything else is a
// logged 500 with a generic message.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stockErr   *sale.InsufficientStockError
		unavailErr *sale.ProductUnavailableError
		qtyErr     *sale.InvalidQuantityError
		excessErr  *sale.ExcessPaymentError
	)

	switch {
	case errors.Is(err, sale.ErrEmptyItems),
		errors.Is(err, sale.ErrInvalidPayment),
		errors.As(err, &qtyErr):
		respondError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, sale.ErrNotFound),
		errors.Is(err, purchase.ErrNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, seller.ErrNotFound),
		errors.Is(err, shipping.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, sale.ErrSaleFinal),
		errors.Is(err, purchase.ErrAlreadyConverted):
		respondError(w, http.StatusConflict, err.Error())

	case errors.As(err, &stockErr),
		errors.As(err, &unavailErr),
		errors.As(err, &excessErr),
		errors.Is(err, discount.ErrInvalidCode):
		respondError(w, http.StatusUnprocessableEntity, err.Error())

	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
