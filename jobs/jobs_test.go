package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/forecast"
	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	jobmetrics "github.com/odyssey-erp/odyssey-pos/internal/jobs"
	"github.com/odyssey-erp/odyssey-pos/internal/notify"
)

type stubForecaster struct {
	estimates []forecast.Estimate
	err       error
}

func (s stubForecaster) Depletion(context.Context) ([]forecast.Estimate, error) {
	return s.estimates, s.err
}

type stubLowStock struct {
	summary inventory.LowStockSummary
}

func (s stubLowStock) LowStock(context.Context) (inventory.LowStockSummary, error) {
	return s.summary, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *jobmetrics.Metrics {
	return jobmetrics.NewMetrics(prometheus.NewRegistry())
}

func TestDepletionScanPostsAlerts(t *testing.T) {
	feed := notify.NewFeed(0, nil, quietLogger())
	job := NewDepletionScanJob(stubForecaster{estimates: []forecast.Estimate{
		{ProductID: "E105", ProductName: "Fusible 10A", Stock: 10, Velocity: 2.86, DaysRemaining: 3.5},
		{ProductID: "E104", ProductName: "Regulador de Voltaje", Stock: 100, Velocity: 10, DaysRemaining: 10},
	}}, feed, quietLogger(), testMetrics())

	task, err := NewDepletionScanTask(time.Now())
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	recent := feed.Recent(0)
	require.Len(t, recent, 2)
	require.Equal(t, notify.CategoryAlert, recent[1].Category)
	require.Equal(t, "[INVENTARIO] Fusible 10A (E105) se agota en ~3.5 días: stock 10, 2.86 u/día", recent[1].Text)
}

func TestDepletionScanFailures(t *testing.T) {
	feed := notify.NewFeed(0, nil, quietLogger())
	boom := errors.New("store unavailable")
	job := NewDepletionScanJob(stubForecaster{err: boom}, feed, quietLogger(), testMetrics())

	task, err := NewDepletionScanTask(time.Now())
	require.NoError(t, err)
	require.ErrorIs(t, job.Handle(context.Background(), task), boom)
	require.Zero(t, feed.Len())

	bad := asynq.NewTask(TaskDepletionScan, []byte("{"))
	require.ErrorIs(t, job.Handle(context.Background(), bad), asynq.SkipRetry)

	var unset *DepletionScanJob
	require.Error(t, unset.Handle(context.Background(), task))
}

func TestLowStockScan(t *testing.T) {
	feed := notify.NewFeed(0, nil, quietLogger())
	products := catalog.DefaultProducts()
	job := NewLowStockScanJob(stubLowStock{summary: inventory.LowStockSummary{
		AlertLevel: 50,
		Count:      2,
		Products:   []catalog.Product{products[1], products[4]},
	}}, feed, quietLogger(), testMetrics())

	task, err := NewLowStockScanTask(time.Now())
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, "[INVENTARIO] 2 productos con stock <= 50: E102 (35), E105 (10)", feed.Recent(1)[0].Text)

	empty := NewLowStockScanJob(stubLowStock{summary: inventory.LowStockSummary{AlertLevel: 50}}, feed, quietLogger(), testMetrics())
	require.NoError(t, empty.Handle(context.Background(), task))
	require.Equal(t, 1, feed.Len())
}

func TestNotificationDispatchPostsWebhook(t *testing.T) {
	var got NotificationPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	msg := notify.Message{Text: "[VENTAS] Factura F1 por $401.25", Category: notify.CategoryInfo, CreatedAt: time.Now().UTC()}
	task, err := NewNotificationTask(msg)
	require.NoError(t, err)

	job := NewNotificationDispatchJob(srv.URL, quietLogger(), testMetrics())
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, msg.Text, got.Text)
	require.Equal(t, notify.CategoryInfo, got.Category)

	logOnly := NewNotificationDispatchJob("", quietLogger(), testMetrics())
	require.NoError(t, logOnly.Handle(context.Background(), task))
}

func TestNotificationDispatchWebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	task, err := NewNotificationTask(notify.Message{Text: "x"})
	require.NoError(t, err)
	err = NewNotificationDispatchJob(srv.URL, quietLogger(), testMetrics()).Handle(context.Background(), task)
	require.ErrorContains(t, err, "status 503")
}

func TestNewTaskByName(t *testing.T) {
	for _, name := range []string{TaskDepletionScan, TaskLowStockScan, TaskDashboardWarmup} {
		task, ok, err := NewTaskByName(name, time.Now())
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, name, task.Type())
	}
	_, ok, err := NewTaskByName(TaskNotificationDispatch, time.Now())
	require.NoError(t, err)
	require.False(t, ok)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

type stubQueue struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (s *stubQueue) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.tasks = append(s.tasks, task)
	s.opts = append(s.opts, opts)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type(), Queue: QueueDefault}, nil
}

func (s *stubQueue) Close() error { return nil }

func serve(h *Handler, method, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.MountRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealthWithoutInspector(t *testing.T) {
	rec := serve(NewHandler(nil, nil, quietLogger()), http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"queue":"default","pending":0,"active":0,"retry":0,"enabled":false}`, rec.Body.String())

	rec = serve(NewHandler(nil, nil, quietLogger()), http.MethodPost, "/run/"+TaskLowStockScan)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthWithInspector(t *testing.T) {
	rec := serve(NewHandler(stubInspector{info: &asynq.QueueInfo{Pending: 4, Active: 1}}, nil, quietLogger()), http.MethodGet, "/health")
	require.JSONEq(t, `{"queue":"default","pending":4,"active":1,"retry":0,"enabled":true}`, rec.Body.String())

	rec = serve(NewHandler(stubInspector{err: errors.New("redis down")}, nil, quietLogger()), http.MethodGet, "/health")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRunEnqueuesKnownTasks(t *testing.T) {
	queue := &stubQueue{}
	client := &Client{queue: queue, now: time.Now}
	h := NewHandler(nil, client, quietLogger())

	rec := serve(h, http.MethodPost, "/run/"+TaskDepletionScan)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, queue.tasks, 1)
	require.Equal(t, TaskDepletionScan, queue.tasks[0].Type())

	rec = serve(h, http.MethodPost, "/run/"+TaskNotificationDispatch)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Len(t, queue.tasks, 1)

	queue.err = asynq.ErrDuplicateTask
	rec = serve(h, http.MethodPost, "/run/"+TaskDepletionScan)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestClientPublishNotification(t *testing.T) {
	queue := &stubQueue{}
	client := &Client{queue: queue, now: time.Now}
	require.NoError(t, client.PublishNotification(context.Background(), notify.Message{Text: "[VENTAS] ok"}))
	require.Len(t, queue.tasks, 1)
	require.Equal(t, TaskNotificationDispatch, queue.tasks[0].Type())

	var payload NotificationPayload
	require.NoError(t, json.Unmarshal(queue.tasks[0].Payload(), &payload))
	require.Equal(t, "[VENTAS] ok", payload.Text)
}
