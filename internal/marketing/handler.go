package marketing

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

// Handler exposes copy generation over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the marketing handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers marketing routes. Generation is rate limited per IP.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/marketing/prompt/{id}", h.handlePrompt)
	r.With(httprate.LimitByIP(5, time.Minute)).Post("/marketing/copy", h.handleCopy)
}

func (h *Handler) handlePrompt(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.service.Prompt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"prompt": prompt})
}

func (h *Handler) handleCopy(w http.ResponseWriter, r *http.Request) {
	var input CopyInput
	if err := httpx.DecodeAndValidate(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.GenerateCopy(r.Context(), input)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrUnknownProduct):
		err = httpx.Classify(httpx.ErrNotFound, err)
	case errors.Is(err, ErrPromptRequired):
		err = httpx.Classify(httpx.ErrValidation, err)
	case errors.Is(err, ErrExternalService):
		err = httpx.Classify(httpx.ErrUpstream, err)
	default:
		h.logger.Error("marketing", slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
