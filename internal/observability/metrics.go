package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jobmetrics "github.com/odyssey-erp/odyssey-pos/internal/jobs"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	checkouts       *prometheus.CounterVec
	salesAmount     prometheus.Counter
	saleLines       prometheus.Histogram
	jobs            *jobmetrics.Metrics
}

// NewMetrics menginisialisasi registry, metrik HTTP, penjualan, dan job.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_http_requests_total",
		Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odyssey_http_request_duration_seconds",
		Help:    "Durasi permintaan HTTP per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_pos_checkouts_total",
		Help: "Jumlah checkout berdasarkan hasil.",
	}, []string{"outcome"})
	amount := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "odyssey_pos_sales_amount_total",
		Help: "Total nilai penjualan yang berhasil (termasuk pajak).",
	})
	lines := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "odyssey_pos_sale_lines",
		Help:    "Jumlah baris per penjualan yang berhasil.",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
	})
	registry.MustRegister(requests, duration, checkouts, amount, lines)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		checkouts:       checkouts,
		salesAmount:     amount,
		saleLines:       lines,
		jobs:            jobmetrics.NewMetrics(registry),
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveCheckout mencatat hasil checkout. Nilai dan jumlah baris hanya
// dicatat untuk penjualan yang berhasil.
func (m *Metrics) ObserveCheckout(outcome string, total float64, lines int) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(outcome).Inc()
	if lines > 0 {
		m.salesAmount.Add(total)
		m.saleLines.Observe(float64(lines))
	}
}

// Jobs mengembalikan metrik job latar belakang.
func (m *Metrics) Jobs() *jobmetrics.Metrics {
	if m == nil {
		return nil
	}
	return m.jobs
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
