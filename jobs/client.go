package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-pos/internal/notify"
)

// ErrUnknownTask is returned when a task name cannot be triggered manually.
var ErrUnknownTask = errors.New("jobs: unknown task")

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Client submits jobs to the queue.
type Client struct {
	queue taskEnqueuer
	now   func() time.Time
}

// NewClient constructs an Asynq-backed client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{queue: asynq.NewClient(redisOpts), now: time.Now}
}

// PublishNotification enqueues a feed message for dispatch. It satisfies
// notify.Publisher.
func (c *Client) PublishNotification(ctx context.Context, msg notify.Message) error {
	task, err := NewNotificationTask(msg)
	if err != nil {
		return err
	}
	_, err = c.queue.EnqueueContext(ctx, task, asynq.MaxRetry(5), asynq.Timeout(30*time.Second))
	return err
}

// Enqueue runs a scan or warmup task as soon as a worker is free. A second
// request for the same task within a minute fails with asynq.ErrDuplicateTask.
func (c *Client) Enqueue(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	task, ok, err := NewTaskByName(name, c.now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return c.queue.EnqueueContext(ctx, task, asynq.MaxRetry(3), asynq.Unique(time.Minute))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.queue.Close()
}
