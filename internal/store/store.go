// Package store persists the catalog and the order ledger. A single
// transaction spans both tables so a sale commits stock and ledger rows
// together.
package store

import (
	"context"
	"errors"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/ledger"
)

// Store is implemented by the flat-file and Postgres backends.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	ListRecords(ctx context.Context) ([]ledger.Record, error)
	Close() error
}

// Tx exposes the mutations available inside WithTx.
type Tx interface {
	GetProductForUpdate(ctx context.Context, id string) (catalog.Product, error)
	InsertProduct(ctx context.Context, p catalog.Product) error
	UpdateStock(ctx context.Context, id string, stock int) error
	AppendRecords(ctx context.Context, records []ledger.Record) error
}

// ErrClosed is returned after Close.
var ErrClosed = errors.New("store: closed")
