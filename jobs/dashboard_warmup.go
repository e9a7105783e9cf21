package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-pos/internal/analytics"
	jobmetrics "github.com/odyssey-erp/odyssey-pos/internal/jobs"
)

// DashboardBuilder builds (and caches) the dashboard snapshot.
type DashboardBuilder interface {
	Dashboard(ctx context.Context) (analytics.Dashboard, error)
}

// DashboardWarmupJob pre-populates the dashboard cache, e.g. right after the
// day rolls over and the cache key changes.
type DashboardWarmupJob struct {
	Analytics DashboardBuilder
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(builder DashboardBuilder, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Analytics: builder,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Analytics == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload ScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := j.now()
	warmCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	dash, err := j.Analytics.Dashboard(warmCtx)
	if err != nil {
		resultErr = err
		j.logger().Error("warm dashboard", slog.Any("error", err))
		return resultErr
	}
	j.logger().Info("completed dashboard warmup",
		slog.Int("orders", dash.Summary.Orders),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DashboardWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
