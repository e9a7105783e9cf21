package notify

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

// Handler exposes the feed over HTTP.
type Handler struct {
	logger *slog.Logger
	feed   *Feed
}

// NewHandler constructs the feed handler.
func NewHandler(logger *slog.Logger, feed *Feed) *Handler {
	return &Handler{logger: logger, feed: feed}
}

// MountRoutes registers feed routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/feed", h.handleList)
	r.Post("/feed", h.handlePost)
}

type postRequest struct {
	Area    string `json:"area" validate:"required"`
	Message string `json:"message" validate:"required"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	httpx.JSON(w, http.StatusOK, h.feed.Recent(limit))
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	msg, err := h.feed.PostArea(r.Context(), req.Area, req.Message)
	if err != nil {
		if errors.Is(err, ErrEmptyMessage) {
			err = httpx.Classify(httpx.ErrValidation, err)
		}
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("area notification", slog.String("text", msg.Text))
	httpx.JSON(w, http.StatusCreated, msg)
}
