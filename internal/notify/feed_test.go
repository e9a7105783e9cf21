package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (p *recordingPublisher) PublishNotification(ctx context.Context, msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecentNewestFirstAndCapped(t *testing.T) {
	feed := NewFeed(3, nil, quietLogger())
	for i := 0; i < 5; i++ {
		feed.Post(context.Background(), fmt.Sprintf("m%d", i), CategoryInfo)
	}

	recent := feed.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "m4", recent[0].Text)
	assert.Equal(t, "m2", recent[2].Text)
	assert.Len(t, feed.Recent(10), 5)
	assert.Equal(t, 5, feed.Len())
}

func TestPostAreaFormatsMessage(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("queue offline")}
	feed := NewFeed(0, pub, quietLogger())

	msg, err := feed.PostArea(context.Background(), "bodega", "revisar fusibles")
	require.NoError(t, err)
	assert.Equal(t, "[BODEGA] revisar fusibles", msg.Text)
	assert.Equal(t, CategoryAlert, msg.Category)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, 1, feed.Len())

	_, err = feed.PostArea(context.Background(), " ", "x")
	require.ErrorIs(t, err, ErrEmptyMessage)
}

func TestFeedConcurrentPosts(t *testing.T) {
	feed := NewFeed(0, nil, quietLogger())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			feed.Post(context.Background(), "x", CategoryInfo)
			_ = feed.Recent(5)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, feed.Len())
}

func TestHandlerPostAndList(t *testing.T) {
	feed := NewFeed(0, nil, quietLogger())
	r := chi.NewRouter()
	NewHandler(quietLogger(), feed).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/feed", strings.NewReader(`{"area":"ventas","message":"cierre 5pm"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/feed", strings.NewReader(`{"area":"ventas"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "[VENTAS] cierre 5pm")
}
