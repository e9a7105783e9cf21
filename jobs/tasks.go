package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-pos/internal/notify"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskNotificationDispatch forwards a feed message to the outbound webhook.
	TaskNotificationDispatch = "pos:notification:dispatch"
	// TaskDepletionScan posts feed alerts for products about to run out.
	TaskDepletionScan = "pos:inventory:depletion-scan"
	// TaskLowStockScan posts one feed alert listing products at or below the alert level.
	TaskLowStockScan = "pos:inventory:low-stock-scan"
	// TaskDashboardWarmup rebuilds the cached dashboard snapshot.
	TaskDashboardWarmup = "pos:analytics:dashboard-warmup"
)

// NotificationPayload mirrors a feed message.
type NotificationPayload struct {
	Text      string          `json:"text"`
	Category  notify.Category `json:"category"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewNotificationTask constructs a dispatch task for a feed message.
func NewNotificationTask(msg notify.Message) (*asynq.Task, error) {
	data, err := json.Marshal(NotificationPayload{Text: msg.Text, Category: msg.Category, CreatedAt: msg.CreatedAt})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationDispatch, data, asynq.Queue(QueueDefault)), nil
}

// ScanPayload carries scheduling metadata for the inventory scans.
type ScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewDepletionScanTask constructs the depletion scan task.
func NewDepletionScanTask(at time.Time) (*asynq.Task, error) {
	return newScanTask(TaskDepletionScan, at)
}

// NewLowStockScanTask constructs the low-stock scan task.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	return newScanTask(TaskLowStockScan, at)
}

// NewDashboardWarmupTask constructs the dashboard warmup task.
func NewDashboardWarmupTask(at time.Time) (*asynq.Task, error) {
	return newScanTask(TaskDashboardWarmup, at)
}

func newScanTask(typename string, at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typename, body, asynq.Queue(QueueDefault)), nil
}

// NewTaskByName builds a task for one of the task types above, used by the
// CLI trigger. Notification dispatch is excluded; it needs a message.
func NewTaskByName(name string, at time.Time) (*asynq.Task, bool, error) {
	switch name {
	case TaskDepletionScan, TaskLowStockScan, TaskDashboardWarmup:
		task, err := newScanTask(name, at)
		return task, true, err
	default:
		return nil, false, nil
	}
}
