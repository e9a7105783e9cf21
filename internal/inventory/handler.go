package inventory

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the catalog.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.handleList)
	r.Post("/products", h.handleAdd)
	r.Get("/products/low-stock", h.handleLowStock)
	r.Get("/products/{id}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.fail(w, "list products", err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	var input AddProductInput
	if err := httpx.DecodeAndValidate(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.AddProduct(r.Context(), input)
	if err != nil {
		h.fail(w, "add product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.LowStock(r.Context())
	if err != nil {
		h.fail(w, "low stock", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, catalog.ErrUnknownProduct):
		err = httpx.Classify(httpx.ErrNotFound, err)
	case errors.Is(err, catalog.ErrDuplicateProduct):
		err = httpx.Classify(httpx.ErrDuplicate, err)
	case errors.Is(err, catalog.ErrInvalidNumericInput),
		errors.Is(err, catalog.ErrInvalidProduct):
		err = httpx.Classify(httpx.ErrValidation, err)
	default:
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
