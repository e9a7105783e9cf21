package invoice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/pricing"
)

type stubPDF struct {
	html string
	err  error
}

func (s *stubPDF) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	s.html = html
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-1.4 invoice"), nil
}

func testIssue() Issue {
	sale := pricing.Price([]pricing.Line{
		{ProductID: "E104", ProductName: "Regulador de Voltaje", Quantity: 30, UnitPrice: decimal.RequireFromString("45.00")},
	}, pricing.DefaultPolicy())
	return Issue{Salesperson: "ana", IssuedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC), Sale: sale}
}

func newEmitter(t *testing.T, pdf PDFClient) (*Emitter, string) {
	t.Helper()
	renderer, err := NewRenderer("Ferretería Odyssey")
	require.NoError(t, err)
	dir := filepath.Join(t.TempDir(), "facturas")
	emitter, err := NewEmitter(dir, renderer, pdf, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return emitter, dir
}

func TestNewIDFormat(t *testing.T) {
	at := time.Date(2024, 12, 31, 23, 59, 58, 0, time.UTC)
	id := NewID(at)
	assert.Regexp(t, regexp.MustCompile(`^F20241231235958-[0-9a-f]{8}$`), id)
	assert.NotEqual(t, id, NewID(at))
}

func TestRenderLayout(t *testing.T) {
	renderer, err := NewRenderer("Ferretería Odyssey")
	require.NoError(t, err)
	html, err := renderer.Render("F20240501093000-abcdef01", testIssue())
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "F20240501093000-abcdef01")
	assert.Contains(t, out, "Regulador de Voltaje")
	assert.Contains(t, out, "SUBTOTAL BRUTO")
	assert.Contains(t, out, "1350.00")
	assert.Contains(t, out, "DESCUENTO (10%)")
	assert.Contains(t, out, "-135.00")
	assert.Contains(t, out, "ITBMS (7%)")
	assert.Contains(t, out, "85.05")
	assert.Contains(t, out, "1300.05")
}

func TestRenderOmitsDiscountRowBelowThreshold(t *testing.T) {
	renderer, err := NewRenderer("Shop")
	require.NoError(t, err)
	issue := testIssue()
	issue.Sale = pricing.Price([]pricing.Line{
		{ProductID: "E101", ProductName: "Cable", Quantity: 500, UnitPrice: decimal.RequireFromString("0.75")},
	}, pricing.DefaultPolicy())
	html, err := renderer.Render("F1", issue)
	require.NoError(t, err)
	assert.NotContains(t, string(html), "DESCUENTO")
	assert.Contains(t, string(html), "401.25")
}

func TestEmitHTMLWithoutPDFClient(t *testing.T) {
	emitter, dir := newEmitter(t, nil)
	ref, err := emitter.Emit(context.Background(), testIssue())
	require.NoError(t, err)

	assert.Equal(t, ContentTypeHTML, ref.ContentType)
	assert.Equal(t, filepath.Join(dir, ref.ID+".html"), ref.Path)
	data, err := os.ReadFile(ref.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "TOTAL A PAGAR")
}

func TestEmitPDF(t *testing.T) {
	pdf := &stubPDF{}
	emitter, _ := newEmitter(t, pdf)
	ref, err := emitter.Emit(context.Background(), testIssue())
	require.NoError(t, err)

	assert.Equal(t, ContentTypePDF, ref.ContentType)
	assert.True(t, strings.HasSuffix(ref.Name, ".pdf"))
	assert.Contains(t, pdf.html, "Regulador de Voltaje")
	data, err := os.ReadFile(ref.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 invoice", string(data))
}

func TestEmitFailureLeavesNoFile(t *testing.T) {
	emitter, dir := newEmitter(t, &stubPDF{err: errors.New("gotenberg down")})
	_, err := emitter.Emit(context.Background(), testIssue())
	require.ErrorIs(t, err, ErrDocumentEmission)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDiscardRemovesDocument(t *testing.T) {
	emitter, _ := newEmitter(t, nil)
	ref, err := emitter.Emit(context.Background(), testIssue())
	require.NoError(t, err)

	emitter.Discard(ref)
	_, err = os.Stat(ref.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestStoreListAndOpen(t *testing.T) {
	emitter, dir := newEmitter(t, nil)
	issue := testIssue()
	first, err := emitter.Emit(context.Background(), issue)
	require.NoError(t, err)
	issue.IssuedAt = issue.IssuedAt.Add(time.Minute)
	second, err := emitter.Emit(context.Background(), issue)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	store := NewStore(dir)
	refs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, second.Name, refs[0].Name)
	assert.Equal(t, first.Name, refs[1].Name)

	f, ref, err := store.Open(first.Name)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, first.ID, ref.ID)

	_, _, err = store.Open("../" + first.Name)
	require.ErrorIs(t, err, ErrDocumentNotFound)
	_, _, err = store.Open("F20240101000000-00000000.pdf")
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestHandlerDownload(t *testing.T) {
	emitter, dir := newEmitter(t, nil)
	ref, err := emitter.Emit(context.Background(), testIssue())
	require.NoError(t, err)

	r := chi.NewRouter()
	NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewStore(dir)).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices/"+ref.Name, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentTypeHTML, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "TOTAL A PAGAR")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices/missing.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoices", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ref.ID)
}
