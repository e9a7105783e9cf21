package marketing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
)

type catalogStub []catalog.Product

func (c catalogStub) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	for _, p := range c {
		if p.ID == catalog.NormalizeID(id) {
			return p, nil
		}
	}
	return catalog.Product{}, fmt.Errorf("%w: %s", catalog.ErrUnknownProduct, id)
}

func geminiServer(t *testing.T, status int, body string, seen *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if seen != nil {
			*seen = req.Contents[0].Parts[0].Text
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okBody = `{"candidates":[{"content":{"parts":[{"text":"  ¡Protege tu hogar! ⚡ "}]}}]}`

func TestClientGenerate(t *testing.T) {
	var seen string
	srv := geminiServer(t, http.StatusOK, okBody, &seen)
	client := NewClient(ClientConfig{APIKey: "test-key", Endpoint: srv.URL})

	text, err := client.Generate(context.Background(), "hola")
	require.NoError(t, err)
	require.Equal(t, "¡Protege tu hogar! ⚡", text)
	require.Equal(t, "hola", seen)
}

func TestClientFailuresAreExternal(t *testing.T) {
	srv := geminiServer(t, http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`, nil)
	client := NewClient(ClientConfig{APIKey: "test-key", Endpoint: srv.URL})
	_, err := client.Generate(context.Background(), "hola")
	require.ErrorIs(t, err, ErrExternalService)
	require.Contains(t, err.Error(), "quota exceeded")

	empty := geminiServer(t, http.StatusOK, `{"candidates":[]}`, nil)
	_, err = NewClient(ClientConfig{APIKey: "test-key", Endpoint: empty.URL}).Generate(context.Background(), "hola")
	require.ErrorIs(t, err, ErrExternalService)

	_, err = NewClient(ClientConfig{}).Generate(context.Background(), "hola")
	require.ErrorIs(t, err, ErrNotConfigured)
	require.ErrorIs(t, err, ErrExternalService)
}

func TestDefaultPrompt(t *testing.T) {
	prompt := DefaultPrompt(catalog.DefaultProducts()[3])
	require.Contains(t, prompt, "'Regulador de Voltaje'")
	require.Contains(t, prompt, "$45.00")
	require.Contains(t, prompt, "Equipo")
	require.True(t, strings.HasSuffix(prompt, "Panamá."))
}

func TestGenerateCopyUsesDefaultPrompt(t *testing.T) {
	var seen string
	srv := geminiServer(t, http.StatusOK, okBody, &seen)
	svc := NewService(catalogStub(catalog.DefaultProducts()), NewClient(ClientConfig{APIKey: "test-key", Endpoint: srv.URL}), slog.New(slog.NewTextHandler(io.Discard, nil)))

	out, err := svc.GenerateCopy(context.Background(), CopyInput{ProductID: "e104"})
	require.NoError(t, err)
	require.Equal(t, "E104", out.ProductID)
	require.Contains(t, seen, "Regulador de Voltaje")
	require.Equal(t, seen, out.Prompt)

	out, err = svc.GenerateCopy(context.Background(), CopyInput{Prompt: "Oferta de fusibles"})
	require.NoError(t, err)
	require.Equal(t, "Oferta de fusibles", seen)
	require.NotEmpty(t, out.Text)

	_, err = svc.GenerateCopy(context.Background(), CopyInput{})
	require.ErrorIs(t, err, ErrPromptRequired)
	_, err = svc.GenerateCopy(context.Background(), CopyInput{ProductID: "X999"})
	require.ErrorIs(t, err, catalog.ErrUnknownProduct)
}

func TestHandlerMapsUpstreamFailure(t *testing.T) {
	srv := geminiServer(t, http.StatusInternalServerError, `{"error":{"code":500,"message":"boom"}}`, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(catalogStub(catalog.DefaultProducts()), NewClient(ClientConfig{APIKey: "test-key", Endpoint: srv.URL}), logger)
	r := chi.NewRouter()
	NewHandler(logger, svc).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/marketing/copy", strings.NewReader(`{"product_id":"E101"}`)))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/marketing/prompt/E101", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Cable THHN 12AWG")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/marketing/prompt/X999", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
