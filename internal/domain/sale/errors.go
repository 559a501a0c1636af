package sale

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for sale validation.
var (
	ErrEmptyItems     = errors.New("sale requires at least one item")
	ErrNotFound       = errors.New("sale not found")
	ErrInvalidPayment = errors.New("payment amount must be positive")
	ErrSaleFinal      = errors.New("sale is in a terminal state")
)

// InsufficientStockError indicates a line's requested quantity exceeds the
// available stock. Fatal to create/convert operations; nothing is persisted.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, only %d available",
		e.ProductName, e.Requested, e.Available)
}

// ProductUnavailableError indicates a product was deleted or unpublished
// between cart-add and checkout.
type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is no longer available", e.ProductID)
}

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// ExcessPaymentError indicates a payment larger than the outstanding balance
// plus the rounding epsilon. Rejected before any write.
type ExcessPaymentError struct {
	Amount  decimal.Decimal
	Balance decimal.Decimal
}

func (e *ExcessPaymentError) Error() string {
	return fmt.Sprintf("payment of %s exceeds outstanding balance of %s", e.Amount, e.Balance)
}
