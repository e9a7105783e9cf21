// Package analytichttp serves the sales dashboard, its charts and the CSV
// reports.
package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/analytics"
	"github.com/odyssey-erp/odyssey-pos/internal/analytics/export"
	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/forecast"
	"github.com/odyssey-erp/odyssey-pos/internal/ledger"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

const requestTimeout = 5 * time.Second

// AnalyticsService defines the dashboard data contract used by the handler.
type AnalyticsService interface {
	Dashboard(ctx context.Context) (analytics.Dashboard, error)
	Depletion(ctx context.Context) ([]forecast.Estimate, error)
	Snapshot(ctx context.Context) ([]catalog.Product, []ledger.Record, error)
	AlertLevel() int
}

// Handler coordinates HTTP requests for the dashboard.
type Handler struct {
	logger  *slog.Logger
	service AnalyticsService
	csvPool sync.Pool
	now     func() time.Time
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service AnalyticsService) *Handler {
	h := &Handler{
		logger:  logger,
		service: service,
		now:     time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	dash, err := h.service.Dashboard(ctx)
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	dash, err := h.service.Dashboard(ctx)
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}
	chart, err := analytics.RenderChart(chi.URLParam(r, "name"), dash)
	switch {
	case errors.Is(err, analytics.ErrUnknownChart):
		httpx.RespondError(w, httpx.Classify(httpx.ErrNotFound, err))
		return
	case errors.Is(err, analytics.ErrNoChartData):
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		h.handleServerError(w, "render chart", err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := io.WriteString(w, string(chart)); err != nil {
		h.logError("stream chart", err)
	}
}

func (h *Handler) handleDepletion(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	estimates, err := h.service.Depletion(ctx)
	if err != nil {
		h.handleServerError(w, "depletion forecast", err)
		return
	}
	if estimates == nil {
		estimates = []forecast.Estimate{}
	}
	httpx.JSON(w, http.StatusOK, estimates)
}

func (h *Handler) handleInventoryCSV(w http.ResponseWriter, r *http.Request) {
	h.writeReport(w, r, "inventario", func(buf *bytes.Buffer, products []catalog.Product, _ []ledger.Record) error {
		return export.WriteInventoryCSV(buf, products, h.service.AlertLevel())
	})
}

func (h *Handler) handleSalesCSV(w http.ResponseWriter, r *http.Request) {
	filter := ledger.Filter{
		InvoiceRef:    r.URL.Query().Get("invoice"),
		SalespersonID: r.URL.Query().Get("salesperson"),
	}
	h.writeReport(w, r, "ventas", func(buf *bytes.Buffer, _ []catalog.Product, records []ledger.Record) error {
		return export.WriteSalesCSV(buf, filter.Apply(records))
	})
}

func (h *Handler) writeReport(w http.ResponseWriter, r *http.Request, name string, write func(*bytes.Buffer, []catalog.Product, []ledger.Record) error) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	products, records, err := h.service.Snapshot(ctx)
	if err != nil {
		h.handleServerError(w, "load report data", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := write(buf, products, records); err != nil {
		h.handleServerError(w, "write "+name+" csv", err)
		return
	}

	filename := fmt.Sprintf("%s-%s.csv", name, h.now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handleServerError(w http.ResponseWriter, op string, err error) {
	h.logError(op, err)
	httpx.RespondError(w, err)
}

func (h *Handler) logError(op string, err error) {
	if h.logger == nil {
		return
	}
	h.logger.Error("analytics handler", slog.String("op", op), slog.Any("error", err))
}
