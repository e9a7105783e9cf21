package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	analytichttp "github.com/odyssey-erp/odyssey-pos/internal/analytics/http"
	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/invoice"
	"github.com/odyssey-erp/odyssey-pos/internal/marketing"
	"github.com/odyssey-erp/odyssey-pos/internal/notify"
	"github.com/odyssey-erp/odyssey-pos/internal/observability"
	"github.com/odyssey-erp/odyssey-pos/internal/sales"
	"github.com/odyssey-erp/odyssey-pos/jobs"
	"github.com/odyssey-erp/odyssey-pos/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	InventoryHandler *inventory.Handler
	SalesHandler     *sales.Handler
	InvoiceHandler   *invoice.Handler
	FeedHandler      *notify.Handler
	AnalyticsHandler *analytichttp.Handler
	MarketingHandler *marketing.Handler
	ReportHandler    *report.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with POS defaults. API routes live
// under /api; health, metrics and job health stay at the root.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		if params.InventoryHandler != nil {
			params.InventoryHandler.MountRoutes(api)
		}
		if params.SalesHandler != nil {
			params.SalesHandler.MountRoutes(api)
		}
		if params.InvoiceHandler != nil {
			params.InvoiceHandler.MountRoutes(api)
		}
		if params.FeedHandler != nil {
			params.FeedHandler.MountRoutes(api)
		}
		if params.AnalyticsHandler != nil {
			params.AnalyticsHandler.MountRoutes(api)
		}
		if params.MarketingHandler != nil {
			params.MarketingHandler.MountRoutes(api)
		}
		if params.ReportHandler != nil {
			api.Route("/report", params.ReportHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
