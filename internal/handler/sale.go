package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/diezydiez/watchstore/internal/domain/invoice"
	"github.com/diezydiez/watchstore/internal/domain/sale"
)

type lineInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func toLineInputs(lines []lineInput) []sale.LineInput {
	out := make([]sale.LineInput, len(lines))
	for i, l := range lines {
		out[i] = sale.LineInput{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return out
}

type createSaleRequest struct {
	Items              []lineInput     `json:"items"`
	CustomerID         string          `json:"customerId"`
	SellerID           string          `json:"sellerId"`
	CommissionPct      decimal.Decimal `json:"commissionPercentage"`
	ShippingLocationID string          `json:"shippingLocationId"`
	ShippingAddress    string          `json:"shippingAddress"`
	Phone              string          `json:"phone"`
	Note               string          `json:"note"`
	Date               time.Time       `json:"date"`
	DiscountCode       string          `json:"discountCode"`
	RequireDiscount    bool            `json:"requireDiscount"`
	PaidInFull         bool            `json:"paidInFull"`
	PaymentMethod      string          `json:"paymentMethod"`
}

type saleResponse struct {
	ID              string                `json:"id"`
	Date            time.Time             `json:"date"`
	CustomerID      string                `json:"customerId"`
	CustomerName    string                `json:"customerName"`
	SellerID        string                `json:"sellerId"`
	SellerName      string                `json:"sellerName"`
	ShippingAddress string                `json:"shippingAddress"`
	City            string                `json:"city"`
	Phone           string                `json:"phone"`
	Note            string                `json:"note,omitempty"`
	Items           []sale.Item           `json:"items"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	ShippingCost    decimal.Decimal       `json:"shippingCost"`
	Discount        *sale.AppliedDiscount `json:"discount,omitempty"`
	ExtraDiscount   decimal.Decimal       `json:"extraDiscount"`
	ExtraCost       decimal.Decimal       `json:"extraCost"`
	Total           decimal.Decimal       `json:"total"`
	Profit          decimal.Decimal       `json:"profit"`
	Commission      sale.Commission       `json:"commission"`
	AmountPaid      decimal.Decimal       `json:"amountPaid"`
	Balance         decimal.Decimal       `json:"balance"`
	Payments        []sale.Payment        `json:"payments"`
	Status          sale.Status           `json:"status"`

	// DiscountError reports a discount code that did not apply; the sale was
	// still created without it.
	DiscountError string `json:"discountError,omitempty"`
}

func toSaleResponse(s *sale.Sale) saleResponse {
	payments := s.Payments
	if payments == nil {
		payments = []sale.Payment{}
	}
	return saleResponse{
		ID:              s.ID,
		Date:            s.Date,
		CustomerID:      s.CustomerID,
		CustomerName:    s.CustomerName,
		SellerID:        s.SellerID,
		SellerName:      s.SellerName,
		ShippingAddress: s.ShippingAddress,
		City:            s.City,
		Phone:           s.Phone,
		Note:            s.Note,
		Items:           s.Items,
		Subtotal:        s.Subtotal,
		ShippingCost:    s.ShippingCost,
		Discount:        s.Discount,
		ExtraDiscount:   s.ExtraDiscount,
		ExtraCost:       s.ExtraCost,
		Total:           s.Total,
		Profit:          s.Profit,
		Commission:      s.Commission,
		AmountPaid:      s.AmountPaid,
		Balance:         s.BalanceDue(),
		Payments:        payments,
		Status:          s.Status,
	}
}

// CreateSale registers a back-office sale.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.sales.Create(r.Context(), sale.CreateRequest{
		Lines:              toLineInputs(req.Items),
		CustomerID:         req.CustomerID,
		SellerID:           req.SellerID,
		CommissionPct:      h.commissionOrDefault(req.CommissionPct),
		ShippingLocationID: req.ShippingLocationID,
		ShippingAddress:    req.ShippingAddress,
		Phone:              req.Phone,
		Note:               req.Note,
		Date:               req.Date,
		DiscountCode:       req.DiscountCode,
		RequireDiscount:    req.RequireDiscount,
		PaidInFull:         req.PaidInFull,
		PaymentMethod:      req.PaymentMethod,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := toSaleResponse(res.Sale)
	if res.DiscountErr != nil {
		out.DiscountError = res.DiscountErr.Error()
	}
	respondJSON(w, http.StatusCreated, out)
}

// ListSales returns all sales, optionally filtered by seller.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	var (
		sales []sale.Sale
		err   error
	)
	if sellerID := r.URL.Query().Get("sellerId"); sellerID != "" {
		sales, err = h.saleRepo.ListBySeller(r.Context(), sellerID)
	} else {
		sales, err = h.saleRepo.List(r.Context())
	}
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]saleResponse, len(sales))
	for i := range sales {
		out[i] = toSaleResponse(&sales[i])
	}
	respondJSON(w, http.StatusOK, out)
}

// GetSale returns one sale.
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	s, err := h.sales.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSaleResponse(s))
}

type registerPaymentRequest struct {
	Amount           decimal.Decimal  `json:"amount"`
	Method           string           `json:"method"`
	NewSellerID      string           `json:"newSellerId,omitempty"`
	NewCommissionPct *decimal.Decimal `json:"newCommissionPercentage,omitempty"`
}

// RegisterPayment appends a payment to a sale.
func (h *Handler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	var req registerPaymentRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.sales.RegisterPayment(r.Context(), sale.RegisterPaymentRequest{
		SaleID:           chi.URLParam(r, "id"),
		Amount:           req.Amount,
		Method:           req.Method,
		NewSellerID:      req.NewSellerID,
		NewCommissionPct: req.NewCommissionPct,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSaleResponse(s))
}

type modifySaleRequest struct {
	CustomerID    string          `json:"customerId"`
	SellerID      string          `json:"sellerId"`
	CommissionPct decimal.Decimal `json:"commissionPercentage"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
}

// ModifySale overwrites a sale's assignment and payment bookkeeping.
func (h *Handler) ModifySale(w http.ResponseWriter, r *http.Request) {
	var req modifySaleRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.sales.ModifyDetails(r.Context(), sale.ModifyDetailsRequest{
		SaleID:        chi.URLParam(r, "id"),
		CustomerID:    req.CustomerID,
		SellerID:      req.SellerID,
		CommissionPct: req.CommissionPct,
		AmountPaid:    req.AmountPaid,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSaleResponse(s))
}

// CancelSale moves a sale to Cancelado and restores its stock.
func (h *Handler) CancelSale(w http.ResponseWriter, r *http.Request) {
	s, err := h.sales.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSaleResponse(s))
}

// DeleteSale removes a sale, restoring the stock it consumed.
func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	if err := h.sales.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaleInvoice renders the sale as a plain-text invoice.
func (h *Handler) SaleInvoice(w http.ResponseWriter, r *http.Request) {
	s, err := h.sales.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	doc := invoice.Build(s, h.invoice)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc.Text()))
}
