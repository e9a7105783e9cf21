// Package invoice renders sale invoices and keeps them in a document
// directory.
package invoice

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-pos/internal/pricing"
)

var (
	// ErrDocumentEmission wraps any failure to render or write an invoice.
	ErrDocumentEmission = errors.New("invoice: document emission failed")
	// ErrDocumentNotFound is returned for unknown or malformed document names.
	ErrDocumentNotFound = errors.New("invoice: document not found")
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// Issue carries everything printed on an invoice.
type Issue struct {
	Salesperson string
	IssuedAt    time.Time
	Sale        pricing.Sale
}

// Reference identifies an emitted document.
type Reference struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"-"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

var namePattern = regexp.MustCompile(`^F\d{14}-[0-9a-f]{8}\.(pdf|html)$`)

// NewID returns F<yyyymmddHHMMSS>-<8 hex>. The random suffix keeps ids
// unique when two sales land in the same second.
func NewID(at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "F" + at.UTC().Format("20060102150405") + "-" + suffix
}

func contentTypeFor(name string) string {
	if strings.HasSuffix(name, ".pdf") {
		return ContentTypePDF
	}
	return ContentTypeHTML
}
