package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/invoice"
	"github.com/odyssey-erp/odyssey-pos/internal/ledger"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

// Handler exposes carts and checkout over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the sales handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

type createSessionRequest struct {
	Salesperson string `json:"salesperson" validate:"required"`
}

type quoteRequest struct {
	Items []Item `json:"items" validate:"dive"`
}

type cartResponse struct {
	Session *Session `json:"session"`
	Items   []Item   `json:"items"`
	Sale    SaleView `json:"sale"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	session, err := h.service.Sessions().Create(req.Salesperson)
	if err != nil {
		h.fail(w, "create session", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, session)
}

func (h *Handler) showCart(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Sessions().Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "show cart", err)
		return
	}
	h.respondCart(w, r, session, http.StatusOK)
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var item Item
	if err := httpx.DecodeAndValidate(r, &item); err != nil {
		httpx.RespondError(w, err)
		return
	}
	session, err := h.service.AddToCart(r.Context(), chi.URLParam(r, "id"), item)
	if err != nil {
		h.fail(w, "add to cart", err)
		return
	}
	h.respondCart(w, r, session, http.StatusOK)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Sessions().Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "clear cart", err)
		return
	}
	session.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	h.service.Sessions().Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkoutSession(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.service.CheckoutSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "checkout session", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, receipt)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var input CheckoutInput
	if err := httpx.DecodeAndValidate(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	receipt, err := h.service.Checkout(r.Context(), input)
	if err != nil {
		h.fail(w, "checkout", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, receipt)
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, err := h.service.Quote(r.Context(), req.Items)
	if err != nil {
		h.fail(w, "quote", err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewSaleView(sale))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ledger.Filter{InvoiceRef: q.Get("invoice"), SalespersonID: q.Get("salesperson"), Limit: 100}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httpx.RespondError(w, httpx.Classify(httpx.ErrValidation, errors.New("limit must be a non-negative integer")))
			return
		}
		filter.Limit = limit
	}
	records, err := h.service.Orders(r.Context(), filter)
	if err != nil {
		h.fail(w, "list orders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) respondCart(w http.ResponseWriter, r *http.Request, session *Session, status int) {
	items := session.Items()
	sale, err := h.service.Quote(r.Context(), items)
	if err != nil {
		h.fail(w, "price cart", err)
		return
	}
	if items == nil {
		items = []Item{}
	}
	httpx.JSON(w, status, cartResponse{Session: session, Items: items, Sale: NewSaleView(sale)})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, catalog.ErrUnknownProduct), errors.Is(err, ErrSessionNotFound):
		err = httpx.Classify(httpx.ErrNotFound, err)
	case errors.Is(err, catalog.ErrInsufficientStock):
		err = httpx.Classify(httpx.ErrConflict, err)
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrSalespersonRequired), errors.Is(err, ErrInvalidQuantity):
		err = httpx.Classify(httpx.ErrValidation, err)
	case errors.Is(err, invoice.ErrDocumentEmission):
		h.logger.Error(op, slog.Any("error", err))
		err = httpx.Classify(httpx.ErrUpstream, err)
	default:
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
