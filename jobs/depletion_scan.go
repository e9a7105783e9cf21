package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-pos/internal/forecast"
	jobmetrics "github.com/odyssey-erp/odyssey-pos/internal/jobs"
	"github.com/odyssey-erp/odyssey-pos/internal/notify"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// AlertArea is the feed area used by inventory scans.
const AlertArea = "INVENTARIO"

// Forecaster estimates stock depletion from live data.
type Forecaster interface {
	Depletion(ctx context.Context) ([]forecast.Estimate, error)
}

// AlertPoster posts area alerts to the notification feed.
type AlertPoster interface {
	PostArea(ctx context.Context, area, text string) (notify.Message, error)
}

// DepletionScanJob posts one feed alert per product projected to run out
// within the forecast horizon.
type DepletionScanJob struct {
	Forecaster Forecaster
	Alerts     AlertPoster
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	clock      func() time.Time
}

// NewDepletionScanJob initialises the depletion scan handler.
func NewDepletionScanJob(forecaster Forecaster, alerts AlertPoster, logger *slog.Logger, metrics *jobmetrics.Metrics) *DepletionScanJob {
	return &DepletionScanJob{
		Forecaster: forecaster,
		Alerts:     alerts,
		Logger:     logger,
		Metrics:    metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the depletion scan.
func (j *DepletionScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Forecaster == nil || j.Alerts == nil {
		return errors.New("depletion scan: handler not configured")
	}
	var payload ScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := j.now()
	tracker := j.metrics().Track(TaskDepletionScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting depletion scan")

	estimates, err := j.Forecaster.Depletion(ctx)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	for _, e := range estimates {
		if _, err := j.Alerts.PostArea(ctx, AlertArea, DepletionAlertText(e)); err != nil {
			resultErr = err
			logger.Error("post alert", slog.String("product_id", e.ProductID), slog.Any("error", err))
			return resultErr
		}
		logger.Warn("stock depletion projected",
			slog.String("product_id", e.ProductID),
			slog.Int("stock", e.Stock),
			slog.Float64("velocity", e.Velocity),
			slog.Float64("days_remaining", e.DaysRemaining),
		)
	}
	j.metrics().AddStockAlerts("depletion", len(estimates))

	logger.Info("completed depletion scan",
		slog.Int("alerts", len(estimates)),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

// DepletionAlertText renders the feed text for an estimate.
func DepletionAlertText(e forecast.Estimate) string {
	return fmt.Sprintf("%s (%s) se agota en ~%s días: stock %d, %s u/día",
		e.ProductName, e.ProductID,
		strconv.FormatFloat(e.DaysRemaining, 'f', 1, 64),
		e.Stock,
		strconv.FormatFloat(e.Velocity, 'f', 2, 64),
	)
}

func (j *DepletionScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDepletionScan))
	}
	return slog.Default().With(slog.String("job", TaskDepletionScan))
}

func (j *DepletionScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DepletionScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
