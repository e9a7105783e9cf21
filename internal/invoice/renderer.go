package invoice

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/web"
)

// Renderer turns an Issue into the invoice HTML layout.
type Renderer struct {
	tpl     *template.Template
	company string
}

type view struct {
	Issue
	ID      string
	Company string
}

// NewRenderer parses the embedded invoice template.
func NewRenderer(company string) (*Renderer, error) {
	funcMap := template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.Format("02/01/2006 15:04")
		},
		"money": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"percent": func(rate decimal.Decimal) string {
			return rate.Mul(decimal.NewFromInt(100)).String() + "%"
		},
	}
	tpl, err := template.New("invoice.html").Funcs(funcMap).ParseFS(web.Templates, "templates/invoice/invoice.html")
	if err != nil {
		return nil, fmt.Errorf("invoice renderer: %w", err)
	}
	return &Renderer{tpl: tpl, company: company}, nil
}

// Render executes the template for the given document id.
func (r *Renderer) Render(id string, issue Issue) ([]byte, error) {
	if r == nil || r.tpl == nil {
		return nil, fmt.Errorf("invoice renderer not initialised")
	}
	buf := &bytes.Buffer{}
	if err := r.tpl.Execute(buf, view{Issue: issue, ID: id, Company: r.company}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
