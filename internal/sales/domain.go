// Package sales runs the checkout pipeline: stock validation, pricing,
// invoice emission, stock decrement and ledger append as one unit.
package sales

import (
	"context"
	"errors"
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/invoice"
	"github.com/odyssey-erp/odyssey-pos/internal/ledger"
	"github.com/odyssey-erp/odyssey-pos/internal/notify"
	"github.com/odyssey-erp/odyssey-pos/internal/pricing"
)

var (
	// ErrEmptyCart is returned when a checkout has no items.
	ErrEmptyCart = errors.New("sales: cart is empty")
	// ErrSalespersonRequired is returned when the salesperson id is blank.
	ErrSalespersonRequired = errors.New("sales: salesperson is required")
	// ErrInvalidQuantity is returned for quantities below one.
	ErrInvalidQuantity = errors.New("sales: quantity must be at least 1")
	// ErrSessionNotFound is returned for unknown cart sessions.
	ErrSessionNotFound = errors.New("sales: session not found")
)

// Item is a requested product and quantity.
type Item struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

// CheckoutInput is a complete sale request.
type CheckoutInput struct {
	Salesperson string `json:"salesperson" validate:"required"`
	Items       []Item `json:"items" validate:"required,min=1,dive"`
}

// Receipt describes a committed sale.
type Receipt struct {
	Invoice  invoice.Reference `json:"invoice"`
	IssuedAt time.Time         `json:"issued_at"`
	Sale     SaleView          `json:"sale"`
	Records  []ledger.Record   `json:"records"`
}

// Emitter produces the invoice document for a sale.
type Emitter interface {
	Emit(ctx context.Context, issue invoice.Issue) (invoice.Reference, error)
	Discard(ref invoice.Reference)
}

// Notifier posts feed messages.
type Notifier interface {
	Post(ctx context.Context, text string, category notify.Category) notify.Message
}

// Invalidator drops cached dashboard data.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Metrics records checkout outcomes.
type Metrics interface {
	ObserveCheckout(outcome string, total float64, lines int)
}

// LineView is a priced cart line formatted for clients.
type LineView struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

// SaleView is a pricing.Sale with money rendered to two decimals.
type SaleView struct {
	Lines    []LineView `json:"lines"`
	Gross    string     `json:"gross"`
	Discount string     `json:"discount"`
	Net      string     `json:"net"`
	Tax      string     `json:"tax"`
	Total    string     `json:"total"`
}

// NewSaleView formats a priced sale.
func NewSaleView(sale pricing.Sale) SaleView {
	view := SaleView{
		Lines:    make([]LineView, 0, len(sale.Lines)),
		Gross:    sale.Gross.StringFixed(pricing.Scale),
		Discount: sale.Discount.StringFixed(pricing.Scale),
		Net:      sale.Net.StringFixed(pricing.Scale),
		Tax:      sale.Tax.StringFixed(pricing.Scale),
		Total:    sale.Total.StringFixed(pricing.Scale),
	}
	for _, line := range sale.Lines {
		view.Lines = append(view.Lines, LineView{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.StringFixed(pricing.Scale),
			Subtotal:    line.LineSubtotal.StringFixed(pricing.Scale),
		})
	}
	return view
}
