// Package notify keeps the in-process notification feed shown on the
// dashboard.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Category drives how a message is highlighted.
type Category string

const (
	CategoryInfo  Category = "info"
	CategoryAlert Category = "alert"
)

// DefaultViewLimit is the number of messages Recent returns when n <= 0.
const DefaultViewLimit = 8

// Message is one feed entry.
type Message struct {
	Text      string    `json:"text"`
	Category  Category  `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher forwards posted messages to another channel, e.g. a job queue.
type Publisher interface {
	PublishNotification(ctx context.Context, msg Message) error
}

// Feed is an append-only, uncapped message list safe for concurrent use.
type Feed struct {
	mu        sync.RWMutex
	messages  []Message
	viewLimit int
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewFeed constructs a Feed. publisher may be nil.
func NewFeed(viewLimit int, publisher Publisher, logger *slog.Logger) *Feed {
	if viewLimit <= 0 {
		viewLimit = DefaultViewLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{viewLimit: viewLimit, publisher: publisher, logger: logger, now: time.Now}
}

// Post appends a message. Publishing failures are logged, never returned.
func (f *Feed) Post(ctx context.Context, text string, category Category) Message {
	if category == "" {
		category = CategoryInfo
	}
	msg := Message{Text: text, Category: category, CreatedAt: f.now().UTC()}

	f.mu.Lock()
	f.messages = append(f.messages, msg)
	f.mu.Unlock()

	if f.publisher != nil {
		if err := f.publisher.PublishNotification(ctx, msg); err != nil {
			f.logger.Warn("publish notification", slog.Any("error", err))
		}
	}
	return msg
}

// PostArea posts a manual message addressed to an area, e.g. "[BODEGA] ...".
func (f *Feed) PostArea(ctx context.Context, area, text string) (Message, error) {
	area = strings.ToUpper(strings.TrimSpace(area))
	text = strings.TrimSpace(text)
	if area == "" || text == "" {
		return Message{}, ErrEmptyMessage
	}
	return f.Post(ctx, fmt.Sprintf("[%s] %s", area, text), CategoryAlert), nil
}

// Recent returns up to n messages, newest first. n <= 0 uses the view limit.
func (f *Feed) Recent(n int) []Message {
	if n <= 0 {
		n = f.viewLimit
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if n > len(f.messages) {
		n = len(f.messages)
	}
	out := make([]Message, 0, n)
	for i := len(f.messages) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, f.messages[i])
	}
	return out
}

// Len returns the number of stored messages.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.messages)
}
