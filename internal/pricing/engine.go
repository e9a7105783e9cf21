// Package pricing computes cart totals. Every amount is rounded half away from
// zero to two decimals at the point it is computed, so the ledger and the
// printed invoice always carry identical figures.
package pricing

import (
	"github.com/shopspring/decimal"
)

// Scale is the number of decimals kept for money.
const Scale = 2

var (
	// DefaultThreshold is the gross subtotal from which the volume discount applies.
	DefaultThreshold = decimal.NewFromInt(1000)
	// DefaultDiscountRate is the volume discount rate.
	DefaultDiscountRate = decimal.RequireFromString("0.10")
	// DefaultTaxRate is the sales tax rate (ITBMS).
	DefaultTaxRate = decimal.RequireFromString("0.07")
)

// Policy groups the discount and tax parameters.
type Policy struct {
	DiscountThreshold decimal.Decimal
	DiscountRate      decimal.Decimal
	TaxRate           decimal.Decimal
}

// DefaultPolicy returns the 1000 / 10% / 7% policy.
func DefaultPolicy() Policy {
	return Policy{
		DiscountThreshold: DefaultThreshold,
		DiscountRate:      DefaultDiscountRate,
		TaxRate:           DefaultTaxRate,
	}
}

// Line is a cart line ready for pricing.
type Line struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Subtotal returns quantity × unit price rounded to Scale.
func (l Line) Subtotal() decimal.Decimal {
	return Round(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
}

// PricedLine is a line with its computed subtotal.
type PricedLine struct {
	Line
	LineSubtotal decimal.Decimal
}

// Sale is the derived, never stored, pricing result of a cart.
type Sale struct {
	Lines        []PricedLine
	Gross        decimal.Decimal
	Discount     decimal.Decimal
	Net          decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	DiscountRate decimal.Decimal
	TaxRate      decimal.Decimal
}

// HasDiscount reports whether the volume discount applied.
func (s Sale) HasDiscount() bool {
	return s.Discount.IsPositive()
}

// Round rounds to Scale decimals, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Price computes gross, discount, net, tax and total for the lines.
// The threshold applies to the whole cart. An empty input yields a zero Sale.
func Price(lines []Line, policy Policy) Sale {
	sale := Sale{
		Lines:        make([]PricedLine, 0, len(lines)),
		Gross:        decimal.Zero,
		Discount:     decimal.Zero,
		DiscountRate: policy.DiscountRate,
		TaxRate:      policy.TaxRate,
	}
	for _, line := range lines {
		subtotal := line.Subtotal()
		sale.Lines = append(sale.Lines, PricedLine{Line: line, LineSubtotal: subtotal})
		sale.Gross = sale.Gross.Add(subtotal)
	}
	if len(sale.Lines) > 0 && sale.Gross.GreaterThanOrEqual(policy.DiscountThreshold) {
		sale.Discount = Round(sale.Gross.Mul(policy.DiscountRate))
	}
	sale.Net = sale.Gross.Sub(sale.Discount)
	sale.Tax = Round(sale.Net.Mul(policy.TaxRate))
	sale.Total = sale.Net.Add(sale.Tax)
	return sale
}
