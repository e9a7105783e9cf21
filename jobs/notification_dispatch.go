package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-pos/internal/jobs"
)

// NotificationDispatchJob forwards feed messages to an outbound webhook.
// Without a webhook URL messages are only logged.
type NotificationDispatchJob struct {
	WebhookURL string
	Client     *http.Client
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// NewNotificationDispatchJob constructs the dispatch handler.
func NewNotificationDispatchJob(webhookURL string, logger *slog.Logger, metrics *jobmetrics.Metrics) *NotificationDispatchJob {
	return &NotificationDispatchJob{
		WebhookURL: webhookURL,
		Client:     &http.Client{Timeout: 10 * time.Second},
		Logger:     logger,
		Metrics:    metrics,
	}
}

// Handle processes TaskNotificationDispatch tasks.
func (j *NotificationDispatchJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("notification dispatch: handler not configured")
	}
	var payload NotificationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics().Track(TaskNotificationDispatch)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("category", string(payload.Category)))
	if j.WebhookURL == "" {
		logger.Info("notification", slog.String("text", payload.Text))
		return resultErr
	}
	if err := j.post(ctx, payload); err != nil {
		resultErr = err
		logger.Warn("dispatch notification", slog.Any("error", err))
		return resultErr
	}
	logger.Debug("notification dispatched", slog.String("text", payload.Text))
	return resultErr
}

func (j *NotificationDispatchJob) post(ctx context.Context, payload NotificationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	client := j.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (j *NotificationDispatchJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskNotificationDispatch))
	}
	return slog.Default().With(slog.String("job", TaskNotificationDispatch))
}

func (j *NotificationDispatchJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
