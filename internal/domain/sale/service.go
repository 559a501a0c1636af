package sale

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/diezydiez/watchstore/internal/domain/customer"
	"github.com/diezydiez/watchstore/internal/domain/discount"
	"github.com/diezydiez/watchstore/internal/domain/product"
	"github.com/diezydiez/watchstore/internal/domain/seller"
	"github.com/diezydiez/watchstore/internal/domain/shipping"
	"github.com/diezydiez/watchstore/internal/money"
)

// LineInput is an unpriced (product, quantity) request line. Prices are
// always re-derived from the catalog, never trusted from client state.
type LineInput struct {
	ProductID string
	Quantity  int
}

// CreateRequest holds the input for registering a sale.
type CreateRequest struct {
	Lines              []LineInput
	CustomerID         string
	SellerID           string
	CommissionPct      decimal.Decimal
	ShippingLocationID string
	ShippingAddress    string
	Phone              string
	Note               string
	Date               time.Time

	// DiscountCode is optional. With RequireDiscount set, an invalid or
	// expired code aborts the sale; otherwise the sale proceeds undiscounted
	// and the validation error is reported in the result.
	DiscountCode    string
	RequireDiscount bool

	// Storefront enforces product visibility: checkout from the public shop
	// rejects unpublished products, back-office sales do not.
	Storefront bool

	// PaidInFull records an immediate full payment so the sale starts in
	// Completado with a single payment entry.
	PaidInFull    bool
	PaymentMethod string
}

// CreateResult is the outcome of a successful sale creation.
type CreateResult struct {
	Sale *Sale

	// DiscountErr carries a recoverable discount validation failure when the
	// caller did not require validity. Nil when the code applied cleanly or
	// no code was given.
	DiscountErr error
}

// Service is the order lifecycle engine. All collaborators are injected;
// there is no ambient catalog or current-user state.
type Service struct {
	products  product.Repository
	discounts *discount.Validator
	sales     Repository
	customers customer.Directory
	sellers   seller.Directory
	shipping  shipping.Repository
	now       func() time.Time
}

// NewService creates the engine with its collaborators.
func NewService(
	products product.Repository,
	discounts *discount.Validator,
	sales Repository,
	customers customer.Directory,
	sellers seller.Directory,
	shippingRepo shipping.Repository,
) *Service {
	return &Service{
		products:  products,
		discounts: discounts,
		sales:     sales,
		customers: customers,
		sellers:   sellers,
		shipping:  shippingRepo,
		now:       time.Now,
	}
}

// WithNow overrides the engine clock. Intended for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create registers a sale: re-prices every line from the live catalog,
// verifies stock and availability, resolves the discount code, computes the
// quote, and persists the sale atomically with the stock decrements.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	items, err := s.priceLines(ctx, req.Lines, req.Storefront)
	if err != nil {
		return nil, err
	}

	loc, err := s.shipping.GetByID(ctx, req.ShippingLocationID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve shipping location")
	}

	cust, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve customer")
	}
	sel, err := s.sellers.GetByID(ctx, req.SellerID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve seller")
	}

	applied, discountErr := s.resolveDiscount(ctx, req.DiscountCode, items)
	if discountErr != nil && req.RequireDiscount {
		return nil, discountErr
	}

	quote := ComputeQuote(items, loc.Cost, decimal.Zero, applied)
	commissionPct := money.ClampPercent(req.CommissionPct)

	date := req.Date
	if date.IsZero() {
		date = s.now()
	}

	sl := &Sale{
		ID:              uuid.New().String(),
		Date:            date,
		CustomerID:      cust.ID,
		CustomerName:    cust.Name,
		SellerID:        sel.ID,
		SellerName:      sel.Name,
		ShippingAddress: req.ShippingAddress,
		City:            loc.City,
		Phone:           req.Phone,
		Note:            req.Note,
		Items:           items,
		Subtotal:        quote.Subtotal,
		ShippingCost:    quote.ShippingCost,
		Discount:        applied,
		ExtraDiscount:   decimal.Zero,
		ExtraCost:       decimal.Zero,
		Total:           quote.Total,
		Profit:          quote.Profit,
		Commission:      CommissionFor(quote.Profit, commissionPct),
		AmountPaid:      decimal.Zero,
		Status:          StatusPending,
	}

	if req.PaidInFull {
		method := req.PaymentMethod
		if method == "" {
			method = "full"
		}
		sl.Payments = []Payment{{Amount: quote.Total, Date: date, Method: method}}
		sl.AmountPaid = quote.Total
		sl.Status = StatusCompleted
	}

	if err := s.sales.Create(ctx, sl, stockDecrements(items)); err != nil {
		return nil, errors.Wrap(err, "create sale")
	}

	return &CreateResult{Sale: sl, DiscountErr: discountErr}, nil
}

// RegisterPaymentRequest holds a payment registration, optionally combined
// with a seller or commission reassignment applied in the same update.
type RegisterPaymentRequest struct {
	SaleID string
	Amount decimal.Decimal
	Method string

	NewSellerID      string
	NewCommissionPct *decimal.Decimal
}

// RegisterPayment appends a payment to a sale and recomputes amountPaid and
// status. The mutation runs inside the repository's serialized
// read-modify-write, so two concurrent payments cannot both be accepted
// against the same stale balance.
func (s *Service) RegisterPayment(ctx context.Context, req RegisterPaymentRequest) (*Sale, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidPayment
	}

	var newSeller *seller.Seller
	if req.NewSellerID != "" {
		sel, err := s.sellers.GetByID(ctx, req.NewSellerID)
		if err != nil {
			return nil, errors.Wrap(err, "resolve seller")
		}
		newSeller = sel
	}

	now := s.now()
	return s.sales.Update(ctx, req.SaleID, func(sl *Sale) ([]StockChange, error) {
		if sl.Status == StatusCanceled {
			return nil, ErrSaleFinal
		}

		balance := sl.BalanceDue()
		if !paymentFits(req.Amount, balance) {
			return nil, &ExcessPaymentError{Amount: req.Amount, Balance: balance}
		}

		sl.Payments = append(sl.Payments, Payment{Amount: req.Amount, Date: now, Method: req.Method})
		sl.AmountPaid = sl.AmountPaid.Add(req.Amount)
		sl.Status = StatusFor(sl.AmountPaid, sl.Total)

		if newSeller != nil {
			sl.SellerID = newSeller.ID
			sl.SellerName = newSeller.Name
		}
		if req.NewCommissionPct != nil {
			pct := money.ClampPercent(*req.NewCommissionPct)
			sl.Commission = CommissionFor(sl.Profit, pct)
		} else if newSeller != nil {
			sl.Commission = CommissionFor(sl.Profit, sl.Commission.Percentage)
		}

		return nil, nil
	})
}

// ModifyDetailsRequest is an administrative override of a sale's assignment
// and payment bookkeeping, bypassing incremental payment semantics.
type ModifyDetailsRequest struct {
	SaleID        string
	CustomerID    string
	SellerID      string
	CommissionPct decimal.Decimal
	AmountPaid    decimal.Decimal
}

// ModifyDetails overwrites customer/seller assignment, commission percentage,
// and amountPaid. Denormalized names are re-resolved from the directories so
// they stay consistent with the IDs. No stock side effects.
func (s *Service) ModifyDetails(ctx context.Context, req ModifyDetailsRequest) (*Sale, error) {
	cust, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve customer")
	}
	sel, err := s.sellers.GetByID(ctx, req.SellerID)
	if err != nil {
		return nil, errors.Wrap(err, "resolve seller")
	}
	if req.AmountPaid.IsNegative() {
		return nil, ErrInvalidPayment
	}

	pct := money.ClampPercent(req.CommissionPct)
	return s.sales.Update(ctx, req.SaleID, func(sl *Sale) ([]StockChange, error) {
		sl.CustomerID = cust.ID
		sl.CustomerName = cust.Name
		sl.SellerID = sel.ID
		sl.SellerName = sel.Name
		sl.Commission = CommissionFor(sl.Profit, pct)
		sl.AmountPaid = req.AmountPaid
		if sl.Status != StatusCanceled {
			sl.Status = StatusFor(sl.AmountPaid, sl.Total)
		}
		return nil, nil
	})
}

// Cancel moves a Pendiente or Abonado sale to Cancelado and restores its
// stock in the same transaction. Cancellation is terminal.
func (s *Service) Cancel(ctx context.Context, saleID string) (*Sale, error) {
	return s.sales.Update(ctx, saleID, func(sl *Sale) ([]StockChange, error) {
		if sl.IsFinal() {
			return nil, ErrSaleFinal
		}
		sl.Status = StatusCanceled
		return RestockChanges(sl.Items), nil
	})
}

// Delete removes a sale and restores the stock its creation decremented,
// atomically. Confirmation for sales with recorded payments is an interface
// concern; the engine always performs the stock-restoring delete.
func (s *Service) Delete(ctx context.Context, saleID string) error {
	sl, err := s.sales.Get(ctx, saleID)
	if err != nil {
		return err
	}

	// A canceled sale already restored its stock; deleting it must not
	// restore again.
	restock := RestockChanges(sl.Items)
	if sl.Status == StatusCanceled {
		restock = nil
	}

	if err := s.sales.Delete(ctx, saleID, restock); err != nil {
		return errors.Wrap(err, "delete sale")
	}
	return nil
}

// Get returns a sale by ID.
func (s *Service) Get(ctx context.Context, saleID string) (*Sale, error) {
	return s.sales.Get(ctx, saleID)
}

// priceLines re-reads every product from the catalog and builds priced sale
// items. It fails with ProductUnavailableError or InsufficientStockError
// before any write; the repository re-verifies stock inside the transaction.
func (s *Service) priceLines(ctx context.Context, lines []LineInput, storefront bool) ([]Item, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, len(lines))
	for i, l := range lines {
		if l.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: l.ProductID}
		}
		ids[i] = l.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]*product.Product, len(fetched))
	for i := range fetched {
		byID[fetched[i].ID] = &fetched[i]
	}

	items := make([]Item, len(lines))
	for i, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, &ProductUnavailableError{ProductID: l.ProductID}
		}
		if storefront && !p.IsPublic {
			return nil, &ProductUnavailableError{ProductID: l.ProductID}
		}
		if p.Quantity < l.Quantity {
			return nil, &InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   l.Quantity,
				Available:   p.Quantity,
			}
		}
		items[i] = Item{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			UnitPrice:   p.EffectivePrice(),
			CostPrice:   p.CostPrice,
		}
	}
	return items, nil
}

// resolveDiscount validates a discount code and freezes its amount against
// the items' subtotal. An empty code yields (nil, nil); an invalid code
// yields (nil, ErrInvalidCode) for the caller to treat as recoverable.
func (s *Service) resolveDiscount(ctx context.Context, code string, items []Item) (*AppliedDiscount, error) {
	if code == "" {
		return nil, nil
	}

	c, err := s.discounts.Validate(ctx, code)
	if err != nil {
		if errors.Is(err, discount.ErrInvalidCode) {
			return nil, discount.ErrInvalidCode
		}
		return nil, errors.Wrap(err, "validate discount code")
	}

	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	return &AppliedDiscount{
		Code:       c.ID,
		Percentage: c.Percentage,
		Amount:     c.Amount(subtotal),
	}, nil
}

// PriceLines exposes line pricing for collaborators outside the package,
// notably guest checkout and purchase conversion.
func (s *Service) PriceLines(ctx context.Context, lines []LineInput, storefront bool) ([]Item, error) {
	return s.priceLines(ctx, lines, storefront)
}

// ResolveDiscount exposes discount resolution for guest checkout.
func (s *Service) ResolveDiscount(ctx context.Context, code string, items []Item) (*AppliedDiscount, error) {
	return s.resolveDiscount(ctx, code, items)
}
