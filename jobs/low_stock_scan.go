package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	jobmetrics "github.com/odyssey-erp/odyssey-pos/internal/jobs"
)

// LowStockReader reports products at or below the alert level.
type LowStockReader interface {
	LowStock(ctx context.Context) (inventory.LowStockSummary, error)
}

// LowStockScanJob posts a single feed alert listing low-stock products.
type LowStockScanJob struct {
	Inventory LowStockReader
	Alerts    AlertPoster
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewLowStockScanJob wires the low-stock scan handler.
func NewLowStockScanJob(reader LowStockReader, alerts AlertPoster, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	return &LowStockScanJob{Inventory: reader, Alerts: alerts, Logger: logger, Metrics: metrics}
}

// Handle performs the scan. Nothing is posted when every product is above
// the alert level.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Inventory == nil || j.Alerts == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload ScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics().Track(TaskLowStockScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	summary, err := j.Inventory.LowStock(ctx)
	if err != nil {
		resultErr = err
		j.logger().Error("load low stock", slog.Any("error", err))
		return resultErr
	}
	if summary.Count == 0 {
		j.logger().Info("no low stock products", slog.String("scheduled_for", payload.ScheduledFor.Format(time.RFC3339)))
		return resultErr
	}
	if _, err := j.Alerts.PostArea(ctx, AlertArea, LowStockAlertText(summary)); err != nil {
		resultErr = err
		return resultErr
	}
	j.metrics().AddStockAlerts("low_stock", summary.Count)
	j.logger().Info("low stock alert posted", slog.Int("count", summary.Count))
	return resultErr
}

// LowStockAlertText lists low-stock products as "ID (stock)".
func LowStockAlertText(summary inventory.LowStockSummary) string {
	items := make([]string, 0, len(summary.Products))
	for _, p := range summary.Products {
		items = append(items, fmt.Sprintf("%s (%d)", p.ID, p.Stock))
	}
	return fmt.Sprintf("%d productos con stock <= %d: %s", summary.Count, summary.AlertLevel, strings.Join(items, ", "))
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLowStockScan))
	}
	return slog.Default().With(slog.String("job", TaskLowStockScan))
}

func (j *LowStockScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
