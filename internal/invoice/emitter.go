package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PDFClient exposes the subset of the report client used by the emitter.
type PDFClient interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Emitter renders invoices and writes them to the document directory.
// Without a PDF client documents are stored as HTML.
type Emitter struct {
	dir      string
	renderer *Renderer
	pdf      PDFClient
	logger   *slog.Logger
}

// NewEmitter constructs an Emitter. pdf may be nil.
func NewEmitter(dir string, renderer *Renderer, pdf PDFClient, logger *slog.Logger) (*Emitter, error) {
	if renderer == nil {
		return nil, fmt.Errorf("invoice emitter: renderer required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("invoice emitter: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{dir: dir, renderer: renderer, pdf: pdf, logger: logger}, nil
}

// Emit renders the issue and stores it. Any failure is reported as
// ErrDocumentEmission and leaves no file behind.
func (e *Emitter) Emit(ctx context.Context, issue Issue) (Reference, error) {
	if issue.IssuedAt.IsZero() {
		issue.IssuedAt = time.Now()
	}
	id := NewID(issue.IssuedAt)

	html, err := e.renderer.Render(id, issue)
	if err != nil {
		return Reference{}, fmt.Errorf("%w: render: %v", ErrDocumentEmission, err)
	}
	body, name := html, id+".html"
	if e.pdf != nil {
		pdf, err := e.pdf.RenderHTML(ctx, string(html))
		if err != nil {
			return Reference{}, fmt.Errorf("%w: pdf: %v", ErrDocumentEmission, err)
		}
		body, name = pdf, id+".pdf"
	}

	path := filepath.Join(e.dir, name)
	if err := writeFileAtomic(path, body); err != nil {
		return Reference{}, fmt.Errorf("%w: write: %v", ErrDocumentEmission, err)
	}
	e.logger.Debug("invoice emitted", slog.String("id", id), slog.String("path", path))
	return Reference{
		ID:          id,
		Name:        name,
		Path:        path,
		ContentType: contentTypeFor(name),
		Size:        int64(len(body)),
		CreatedAt:   issue.IssuedAt,
	}, nil
}

// Discard removes an emitted document whose sale did not commit.
func (e *Emitter) Discard(ref Reference) {
	if ref.Path == "" {
		return
	}
	if err := os.Remove(ref.Path); err != nil && !os.IsNotExist(err) {
		e.logger.Warn("discard invoice", slog.String("id", ref.ID), slog.Any("error", err))
	}
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}
