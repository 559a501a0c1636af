package purchase

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/diezydiez/watchstore/internal/domain/customer"
	"github.com/diezydiez/watchstore/internal/domain/sale"
	"github.com/diezydiez/watchstore/internal/domain/seller"
	"github.com/diezydiez/watchstore/internal/domain/shipping"
	"github.com/diezydiez/watchstore/internal/money"
)

// CheckoutRequest is a guest checkout from the public storefront.
type CheckoutRequest struct {
	Lines              []sale.LineInput
	CustomerName       string
	CustomerEmail      string
	Phone              string
	ShippingAddress    string
	ShippingLocationID string
	Note               string
	DiscountCode       string
}

// CheckoutResult is the outcome of a successful guest checkout.
type CheckoutResult struct {
	Purchase *Purchase

	// DiscountErr carries a recoverable discount validation failure; the
	// purchase proceeds undiscounted.
	DiscountErr error
}

// ConvertRequest promotes an unregistered purchase into a formal sale.
type ConvertRequest struct {
	PurchaseID    string
	SellerID      string
	CustomerID    string
	CommissionPct decimal.Decimal
}

// Service handles guest purchases and their one-way conversion into sales.
type Service struct {
	purchases Repository
	sales     sale.Repository
	engine    *sale.Service
	customers customer.Directory
	sellers   seller.Directory
	shipping  shipping.Repository
	now       func() time.Time
}

// NewService creates the purchase service.
func NewService(
	purchases Repository,
	sales sale.Repository,
	engine *sale.Service,
	customers customer.Directory,
	sellers seller.Directory,
	shippingRepo shipping.Repository,
) *Service {
	return &Service{
		purchases: purchases,
		sales:     sales,
		engine:    engine,
		customers: customers,
		sellers:   sellers,
		shipping:  shippingRepo,
		now:       time.Now,
	}
}

// WithNow overrides the service clock. Intended for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Checkout records a guest purchase. Stock availability and product
// visibility are verified so the shopper gets an immediate error, but no
// stock is reserved: guest orders decrement nothing until conversion.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	items, err := s.engine.PriceLines(ctx, req.Lines, true)
	if err != nil {
		return nil, err
	}

	loc, err := s.shipping.GetByID(ctx, req.ShippingLocationID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve shipping location")
	}

	applied, discountErr := s.engine.ResolveDiscount(ctx, req.DiscountCode, items)

	quote := sale.ComputeQuote(items, loc.Cost, decimal.Zero, applied)

	p := &Purchase{
		ID:              uuid.New().String(),
		Date:            s.now(),
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		Phone:           req.Phone,
		ShippingAddress: req.ShippingAddress,
		City:            loc.City,
		Note:            req.Note,
		Items:           items,
		Subtotal:        quote.Subtotal,
		Discount:        applied,
		ShippingCost:    quote.ShippingCost,
		Total:           quote.Total,
	}

	if err := s.purchases.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create purchase")
	}

	return &CheckoutResult{Purchase: p, DiscountErr: discountErr}, nil
}

// Convert turns an unregistered purchase into a Pendiente sale with zero
// payments. The stock decrement deferred at guest checkout happens now,
// atomically with the sale insert and the consumption of the purchase
// record. Converting the same purchase twice fails with ErrAlreadyConverted
// and decrements nothing.
func (s *Service) Convert(ctx context.Context, req ConvertRequest) (*sale.Sale, error) {
	p, err := s.purchases.GetByID(ctx, req.PurchaseID)
	if err != nil {
		return nil, err
	}

	cust, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve customer")
	}
	sel, err := s.sellers.GetByID(ctx, req.SellerID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve seller")
	}

	// Line composition is not re-validated: the purchase's frozen items and
	// prices carry over verbatim. Stock, however, is re-verified inside the
	// conversion transaction.
	quote := sale.ComputeQuote(p.Items, p.ShippingCost, decimal.Zero, p.Discount)
	pct := money.ClampPercent(req.CommissionPct)

	sl := &sale.Sale{
		ID:              uuid.New().String(),
		Date:            s.now(),
		CustomerID:      cust.ID,
		CustomerName:    cust.Name,
		SellerID:        sel.ID,
		SellerName:      sel.Name,
		ShippingAddress: p.ShippingAddress,
		City:            p.City,
		Phone:           p.Phone,
		Note:            p.Note,
		Items:           p.Items,
		Subtotal:        quote.Subtotal,
		ShippingCost:    quote.ShippingCost,
		Discount:        p.Discount,
		ExtraDiscount:   decimal.Zero,
		ExtraCost:       decimal.Zero,
		Total:           quote.Total,
		Profit:          quote.Profit,
		Commission:      sale.CommissionFor(quote.Profit, pct),
		AmountPaid:      decimal.Zero,
		Status:          sale.StatusPending,
	}

	decrements := sale.RestockChanges(p.Items)
	if err := s.sales.ConvertPurchase(ctx, p.ID, sl, decrements); err != nil {
		return nil, err
	}

	return sl, nil
}

// MatchCustomer finds an existing ledger customer by email so conversion can
// pre-select it instead of creating a duplicate. Returns (nil, nil) when no
// customer matches.
func (s *Service) MatchCustomer(ctx context.Context, email string) (*customer.Customer, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}

	c, err := s.customers.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find customer by email")
	}
	return c, nil
}

// Get returns a purchase by ID.
func (s *Service) Get(ctx context.Context, id string) (*Purchase, error) {
	return s.purchases.GetByID(ctx, id)
}

// List returns all pending unregistered purchases.
func (s *Service) List(ctx context.Context) ([]Purchase, error) {
	return s.purchases.List(ctx)
}

// Delete discards a guest purchase. No stock was ever decremented for it, so
// deletion touches nothing but the record itself.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.purchases.Delete(ctx, id)
}
