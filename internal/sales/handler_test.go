package sales

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, *fixture) {
	t.Helper()
	f := newFixture(t)
	r := chi.NewRouter()
	NewHandler(quietLogger(), f.svc).MountRoutes(r)
	return r, f
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCheckout(t *testing.T) {
	h, f := newTestRouter(t)

	rec := do(h, http.MethodPost, "/checkout", `{"salesperson":"ana","items":[{"product_id":"E104","quantity":30}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var receipt Receipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.Equal(t, "1300.05", receipt.Sale.Total)
	assert.NotEmpty(t, receipt.Invoice.ID)
	assert.Equal(t, 70, f.stock(t, "E104"))
}

func TestHandlerCheckoutErrors(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(h, http.MethodPost, "/checkout", `{"salesperson":"ana","items":[{"product_id":"E105","quantity":99}]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient stock")

	rec = do(h, http.MethodPost, "/checkout", `{"salesperson":"ana","items":[{"product_id":"Z1","quantity":1}]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPost, "/checkout", `{"salesperson":"ana","items":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/checkout", `{"items":[{"product_id":"E101","quantity":1}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerSessionLifecycle(t *testing.T) {
	h, f := newTestRouter(t)

	rec := do(h, http.MethodPost, "/sessions", `{"salesperson":"ana"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var session struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))

	rec = do(h, http.MethodPost, "/sessions/"+session.ID+"/cart", `{"product_id":"E101","quantity":500}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":"401.25"`)

	rec = do(h, http.MethodGet, "/sessions/"+session.ID+"/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"product_id":"E101"`)

	rec = do(h, http.MethodPost, "/sessions/"+session.ID+"/checkout", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1000, f.stock(t, "E101"))

	rec = do(h, http.MethodGet, "/orders?salesperson=ana", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"quantity":500`)

	rec = do(h, http.MethodGet, "/sessions/unknown/cart", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodGet, "/orders?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
