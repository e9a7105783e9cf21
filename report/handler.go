package report

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/invoice"
	"github.com/odyssey-erp/odyssey-pos/internal/pricing"
)

// Renderer renders invoice HTML. *invoice.Renderer satisfies it.
type Renderer interface {
	Render(id string, issue invoice.Issue) ([]byte, error)
}

// PDFRenderer converts HTML to PDF. *Client satisfies it.
type PDFRenderer interface {
	Ping(ctx context.Context) error
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Handler manages report endpoints. client may be nil when Gotenberg is not
// configured; previews are then served as HTML.
type Handler struct {
	client   PDFRenderer
	renderer Renderer
	policy   pricing.Policy
	logger   *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client PDFRenderer, renderer Renderer, policy pricing.Policy, logger *slog.Logger) *Handler {
	return &Handler{client: client, renderer: renderer, policy: policy, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/invoice-preview", h.invoicePreview)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.client == nil {
		_, _ = w.Write([]byte(`{"status":"disabled"}`))
		return
	}
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// invoicePreview prints a sample invoice above the discount threshold so the
// layout can be checked without recording a sale.
func (h *Handler) invoicePreview(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	sale := pricing.Price([]pricing.Line{
		{ProductID: "E104", ProductName: "Regulador de Voltaje", Quantity: 30, UnitPrice: decimal.RequireFromString("45.00")},
		{ProductID: "E101", ProductName: "Cable THHN 12AWG", Quantity: 10, UnitPrice: decimal.RequireFromString("0.75")},
	}, h.policy)
	html, err := h.renderer.Render(invoice.NewID(now), invoice.Issue{Salesperson: "preview", IssuedAt: now, Sale: sale})
	if err != nil {
		h.logger.Error("render preview", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if h.client == nil {
		w.Header().Set("Content-Type", invoice.ContentTypeHTML)
		_, _ = w.Write(html)
		return
	}
	pdf, err := h.client.RenderHTML(r.Context(), string(html))
	if err != nil {
		h.logger.Error("render preview pdf", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", invoice.ContentTypePDF)
	w.Header().Set("Content-Disposition", "inline; filename=preview.pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
