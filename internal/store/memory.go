package store

import (
	"context"
	"sync"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/ledger"
)

// Memory is a non-durable Store with the same transaction semantics as
// FlatFile. Used by STORE_DRIVER=memory and by tests.
type Memory struct {
	mu       sync.Mutex
	products []catalog.Product
	records  []ledger.Record
	closed   bool
}

// NewMemory returns a Memory store holding a copy of seed.
func NewMemory(seed []catalog.Product) *Memory {
	return &Memory{products: append([]catalog.Product(nil), seed...)}
}

// WithTx runs fn against a working copy and swaps it in on success.
func (m *Memory) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &flatTx{
		products: append([]catalog.Product(nil), m.products...),
		index:    make(map[string]int, len(m.products)),
	}
	for i, p := range tx.products {
		tx.index[p.ID] = i
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.products = tx.products
	m.records = append(m.records, tx.appended...)
	return nil
}

// ListProducts returns a copy of the catalog.
func (m *Memory) ListProducts(context.Context) ([]catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return append([]catalog.Product(nil), m.products...), nil
}

// ListRecords returns a copy of the ledger.
func (m *Memory) ListRecords(context.Context) ([]ledger.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return append([]ledger.Record(nil), m.records...), nil
}

// Close marks the store closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
