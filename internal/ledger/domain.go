// Package ledger holds the append-only order ledger rows.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one sold line of a committed sale. Records are never mutated.
type Record struct {
	OrderID       string          `json:"order_id"`
	Timestamp     time.Time       `json:"timestamp"`
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      int             `json:"quantity"`
	NetAmount     decimal.Decimal `json:"net_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	SalespersonID string          `json:"salesperson_id"`
	InvoiceRef    string          `json:"invoice_ref"`
}

// Filter narrows ledger listings.
type Filter struct {
	InvoiceRef    string
	SalespersonID string
	Limit         int
}

// Match reports whether the record satisfies the filter.
func (f Filter) Match(r Record) bool {
	if f.InvoiceRef != "" && r.InvoiceRef != f.InvoiceRef {
		return false
	}
	if f.SalespersonID != "" && r.SalespersonID != f.SalespersonID {
		return false
	}
	return true
}

// Apply returns the records matching the filter, newest first, capped by Limit.
func (f Filter) Apply(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		if !f.Match(records[i]) {
			continue
		}
		out = append(out, records[i])
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}
