package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/observability"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	t.Setenv("STORE_DRIVER", StoreMemory)
	t.Setenv("REDIS_ADDR", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	return cfg
}

func TestRouterServesHealthProductsAndMetrics(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := OpenStore(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	inv := inventory.NewService(st, nil, nil, inventory.ServiceConfig{AlertLevel: cfg.StockAlertLevel}, logger)
	metrics := observability.NewMetrics()
	router := NewRouter(RouterParams{
		Logger:           logger,
		Config:           cfg,
		InventoryHandler: inventory.NewHandler(logger, inv),
		Metrics:          metrics,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/E104", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var product map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))
	require.Equal(t, "Regulador de Voltaje", product["name"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/NOPE", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "odyssey_http_requests_total"))
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreDriver = "sqlite"
	_, err := OpenStore(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}
