// Package invoice builds printable invoice documents from finalized sales.
// Building is a pure projection: it never mutates the sale and is safe to
// call repeatedly for previews, exports, or PDF rendering by an external
// rasterizer.
package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diezydiez/watchstore/internal/domain/sale"
	"github.com/diezydiez/watchstore/internal/money"
)

// Settings carries the store identity printed on every invoice.
type Settings struct {
	StoreName string
	Address   string
	Phone     string
}

// Line is a rendered invoice line.
type Line struct {
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// PaymentRow is a rendered payment history entry.
type PaymentRow struct {
	Amount decimal.Decimal
	Date   time.Time
	Method string
}

// Document is a read-only projection of a sale ready for rendering.
type Document struct {
	Settings Settings

	SaleID       string
	Date         time.Time
	CustomerName string
	SellerName   string
	Address      string
	City         string
	Status       sale.Status

	Lines         []Line
	Subtotal      decimal.Decimal
	Discount      *sale.AppliedDiscount
	ShippingCost  decimal.Decimal
	ExtraCost     decimal.Decimal
	ExtraDiscount decimal.Decimal
	Total         decimal.Decimal
	AmountPaid    decimal.Decimal
	Balance       decimal.Decimal
	Payments      []PaymentRow
}

// Build projects a sale into a Document. Balance is
// total − amountPaid − extraDiscount.
func Build(s *sale.Sale, settings Settings) Document {
	lines := make([]Line, len(s.Items))
	for i, it := range s.Items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		lines[i] = Line{
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.UnitPrice.Mul(qty).Round(2),
		}
	}

	payments := make([]PaymentRow, len(s.Payments))
	for i, p := range s.Payments {
		payments[i] = PaymentRow{Amount: p.Amount, Date: p.Date, Method: p.Method}
	}

	return Document{
		Settings:      settings,
		SaleID:        s.ID,
		Date:          s.Date,
		CustomerName:  s.CustomerName,
		SellerName:    s.SellerName,
		Address:       s.ShippingAddress,
		City:          s.City,
		Status:        s.Status,
		Lines:         lines,
		Subtotal:      s.Subtotal,
		Discount:      s.Discount,
		ShippingCost:  s.ShippingCost,
		ExtraCost:     s.ExtraCost,
		ExtraDiscount: s.ExtraDiscount,
		Total:         s.Total,
		AmountPaid:    s.AmountPaid,
		Balance:       s.BalanceDue(),
		Payments:      payments,
	}
}

// Text renders the document as a plain-text invoice suitable for terminal
// preview or piping into an external PDF renderer.
func (d *Document) Text() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", d.Settings.StoreName)
	if d.Settings.Address != "" {
		fmt.Fprintf(&b, "%s\n", d.Settings.Address)
	}
	if d.Settings.Phone != "" {
		fmt.Fprintf(&b, "Tel: %s\n", d.Settings.Phone)
	}
	fmt.Fprintf(&b, "\nFactura #%s\n", shortID(d.SaleID))
	fmt.Fprintf(&b, "Fecha: %s\n", d.Date.Format("02/01/2006"))
	fmt.Fprintf(&b, "Cliente: %s\n", d.CustomerName)
	if d.SellerName != "" {
		fmt.Fprintf(&b, "Vendedor: %s\n", d.SellerName)
	}
	fmt.Fprintf(&b, "Entrega: %s, %s\n\n", d.Address, d.City)

	for _, l := range d.Lines {
		fmt.Fprintf(&b, "%dx %-30s %12s %12s\n",
			l.Quantity, l.ProductName, money.Format(l.UnitPrice), money.Format(l.LineTotal))
	}

	fmt.Fprintf(&b, "\nSubtotal: %s\n", money.Format(d.Subtotal))
	if d.Discount != nil {
		fmt.Fprintf(&b, "Descuento (%s): -%s\n", d.Discount.Code, money.Format(d.Discount.Amount))
	}
	fmt.Fprintf(&b, "Envío: %s\n", money.Format(d.ShippingCost))
	if d.ExtraCost.IsPositive() {
		fmt.Fprintf(&b, "Cargo adicional: %s\n", money.Format(d.ExtraCost))
	}
	if d.ExtraDiscount.IsPositive() {
		fmt.Fprintf(&b, "Descuento extra: -%s\n", money.Format(d.ExtraDiscount))
	}
	fmt.Fprintf(&b, "Total: %s\n", money.Format(d.Total))
	fmt.Fprintf(&b, "Pagado: %s\n", money.Format(d.AmountPaid))
	fmt.Fprintf(&b, "Saldo: %s\n", money.Format(d.Balance))

	if len(d.Payments) > 0 {
		b.WriteString("\nPagos:\n")
		for _, p := range d.Payments {
			fmt.Fprintf(&b, "  %s  %12s  %s\n",
				p.Date.Format("02/01/2006"), money.Format(p.Amount), p.Method)
		}
	}

	return b.String()
}

func shortID(id string) string {
	if len(id) > 6 {
		return id[:6]
	}
	return id
}
