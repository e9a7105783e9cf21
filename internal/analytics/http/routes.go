package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers dashboard, forecast and report endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/dashboard", h.handleDashboard)
	r.Get("/dashboard/charts/{name}.svg", h.handleChart)
	r.Get("/forecast/depletion", h.handleDepletion)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/reports/inventory.csv", h.handleInventoryCSV)
		gr.Get("/reports/sales.csv", h.handleSalesCSV)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
