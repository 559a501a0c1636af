// Package sale implements the order lifecycle engine: turning priced line
// items into a persisted sale, tracking payments against the balance, and
// driving status transitions. All money math uses shopspring decimals.
package sale

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diezydiez/watchstore/internal/money"
)

// Status is the lifecycle state of a sale. Completado and Cancelado are
// terminal.
type Status string

const (
	StatusPending   Status = "Pendiente"
	StatusPartial   Status = "Abonado"
	StatusCompleted Status = "Completado"
	StatusCanceled  Status = "Cancelado"
)

// Item is a sale line with prices frozen at creation time.
type Item struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	CostPrice   decimal.Decimal `json:"costPrice"`
}

// Payment is a single recorded payment against a sale.
type Payment struct {
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	Method string          `json:"method"`
}

// AppliedDiscount freezes a discount code's effect into a sale.
type AppliedDiscount struct {
	Code       string          `json:"code"`
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

// Commission is the seller's cut, computed from the sale's frozen profit.
type Commission struct {
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

// Sale is a persisted order. CustomerName and SellerName are denormalized
// display fields kept consistent with their IDs by the engine.
type Sale struct {
	ID              string
	Date            time.Time
	CustomerID      string
	CustomerName    string
	SellerID        string
	SellerName      string
	ShippingAddress string
	City            string
	Phone           string
	Note            string
	Items           []Item
	Subtotal        decimal.Decimal
	ShippingCost    decimal.Decimal
	Discount        *AppliedDiscount
	ExtraDiscount   decimal.Decimal
	ExtraCost       decimal.Decimal
	Total           decimal.Decimal
	Profit          decimal.Decimal
	Commission      Commission
	AmountPaid      decimal.Decimal
	Payments        []Payment
	Status          Status
}

// BalanceDue is the amount still owed: total - amountPaid - extraDiscount.
func (s *Sale) BalanceDue() decimal.Decimal {
	return s.Total.Sub(s.AmountPaid).Sub(s.ExtraDiscount)
}

// IsFinal reports whether the sale is in a terminal state.
func (s *Sale) IsFinal() bool {
	return s.Status == StatusCompleted || s.Status == StatusCanceled
}

// StatusFor derives the payment status from amountPaid and total:
// Completado once the total is covered, Abonado for a partial payment,
// Pendiente otherwise. Cancelado is never derived; it is only reachable by
// explicit cancellation.
func StatusFor(amountPaid, total decimal.Decimal) Status {
	switch {
	case amountPaid.GreaterThanOrEqual(total):
		return StatusCompleted
	case amountPaid.IsPositive():
		return StatusPartial
	default:
		return StatusPending
	}
}

// StockChange is a product stock delta applied atomically with a sale write.
type StockChange struct {
	ProductID string
	Quantity  int
}

// stockDecrements builds the decrement list for a set of sale items.
func stockDecrements(items []Item) []StockChange {
	out := make([]StockChange, len(items))
	for i, it := range items {
		out[i] = StockChange{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out
}

// RestockChanges builds the stock-restoring deltas for a sale's items, used
// on delete and cancellation.
func RestockChanges(items []Item) []StockChange {
	return stockDecrements(items)
}

// UpdateFunc mutates a sale inside the repository's transactional
// read-modify-write. It may return stock changes to apply (positive
// quantities are restored to stock) in the same transaction.
type UpdateFunc func(s *Sale) (restock []StockChange, err error)

// Repository defines persistence for sales. Create and ConvertPurchase must
// be atomic: stock verification, stock decrement, and the sale write all
// succeed or all roll back. Update serializes concurrent mutations of one
// sale. Delete restores the given stock in the same transaction that removes
// the sale.
type Repository interface {
	Create(ctx context.Context, s *Sale, decrements []StockChange) error
	Get(ctx context.Context, id string) (*Sale, error)
	List(ctx context.Context) ([]Sale, error)
	ListBySeller(ctx context.Context, sellerID string) ([]Sale, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (*Sale, error)
	Delete(ctx context.Context, id string, restock []StockChange) error
	ConvertPurchase(ctx context.Context, purchaseID string, s *Sale, decrements []StockChange) error
}

// paymentFits reports whether amount can be registered against balance,
// allowing the configured epsilon of rounding drift.
func paymentFits(amount, balance decimal.Decimal) bool {
	return amount.LessThanOrEqual(balance.Add(money.PaymentEpsilon))
}
