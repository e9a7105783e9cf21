package jobs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

// QueueInspector reads queue statistics. *asynq.Inspector satisfies it.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Enqueuer triggers a named task. *Client satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string) (*asynq.TaskInfo, error)
}

// Handler exposes HTTP endpoints for job observability and manual runs.
type Handler struct {
	inspector QueueInspector
	enqueuer  Enqueuer
	logger    *slog.Logger
}

// NewHandler constructs the jobs handler. Both inspector and enqueuer are nil
// when Redis is not configured.
func NewHandler(inspector QueueInspector, enqueuer Enqueuer, logger *slog.Logger) *Handler {
	return &Handler{inspector: inspector, enqueuer: enqueuer, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
	r.Post("/run/{name}", h.run)
}

type queueHealth struct {
	Queue   string `json:"queue"`
	Pending int    `json:"pending"`
	Active  int    `json:"active"`
	Retry   int    `json:"retry"`
	Enabled bool   `json:"enabled"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	resp := queueHealth{Queue: QueueDefault}
	if h.inspector == nil {
		httpx.JSON(w, http.StatusOK, resp)
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		h.logger.Warn("jobs health", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "")
		return
	}
	resp.Enabled = true
	if info != nil {
		resp.Pending = int(info.Pending)
		resp.Active = int(info.Active)
		resp.Retry = int(info.Retry)
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Jobs Disabled", "REDIS_ADDR is not configured")
		return
	}
	info, err := h.enqueuer.Enqueue(r.Context(), chi.URLParam(r, "name"))
	switch {
	case errors.Is(err, ErrUnknownTask):
		httpx.RespondError(w, httpx.Classify(httpx.ErrNotFound, err))
		return
	case errors.Is(err, asynq.ErrDuplicateTask):
		httpx.RespondError(w, httpx.Classify(httpx.ErrConflict, err))
		return
	case err != nil:
		h.logger.Error("enqueue job", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"id": info.ID, "type": info.Type, "queue": info.Queue})
}
