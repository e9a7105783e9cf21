package invoice

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

// Handler serves the document store.
type Handler struct {
	logger *slog.Logger
	store  *Store
}

// NewHandler constructs the invoice handler.
func NewHandler(logger *slog.Logger, store *Store) *Handler {
	return &Handler{logger: logger, store: store}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.handleList)
	r.Get("/invoices/{name}", h.handleDownload)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	refs, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if refs == nil {
		refs = []Reference{}
	}
	httpx.JSON(w, http.StatusOK, refs)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	f, ref, err := h.store.Open(chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			httpx.RespondError(w, httpx.Classify(httpx.ErrNotFound, err))
			return
		}
		h.logger.Error("open invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", ref.ContentType)
	w.Header().Set("Content-Disposition", "inline; filename="+ref.Name)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		h.logger.Warn("stream invoice", slog.String("name", ref.Name), slog.Any("error", err))
	}
}
