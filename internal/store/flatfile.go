package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/ledger"
)

const (
	// DefaultCatalogFile is the catalog table name inside the data directory.
	DefaultCatalogFile = "catalog.csv"
	// DefaultLedgerFile is the ledger table name inside the data directory.
	DefaultLedgerFile = "ledger.csv"
)

// FlatFileOptions configures OpenFlatFile.
type FlatFileOptions struct {
	CatalogFile string
	LedgerFile  string
	// Seed is written as the initial catalog when the catalog file is missing.
	Seed []catalog.Product
}

// FlatFile keeps both tables in memory and rewrites a table file wholesale
// after every committed change. Each file is replaced by rename, so a crash
// leaves either the old or the new version of a file, never a torn one. When
// a rename fails, files already replaced in that commit are restored from
// their backups, so a failed commit leaves both files as they were. Only a
// crash between the two renames can leave catalog and ledger out of step.
type FlatFile struct {
	mu          sync.Mutex
	catalogPath string
	ledgerPath  string
	products    []catalog.Product
	records     []ledger.Record
	closed      bool
	rename      func(oldpath, newpath string) error
}

// OpenFlatFile loads (or initialises) the tables under dir.
func OpenFlatFile(dir string, opts FlatFileOptions) (*FlatFile, error) {
	if opts.CatalogFile == "" {
		opts.CatalogFile = DefaultCatalogFile
	}
	if opts.LedgerFile == "" {
		opts.LedgerFile = DefaultLedgerFile
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}
	s := &FlatFile{
		catalogPath: filepath.Join(dir, opts.CatalogFile),
		ledgerPath:  filepath.Join(dir, opts.LedgerFile),
		rename:      os.Rename,
	}
	if err := s.loadCatalog(opts.Seed); err != nil {
		return nil, err
	}
	if err := s.loadLedger(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FlatFile) loadCatalog(seed []catalog.Product) error {
	rows, err := readTable(s.catalogPath, catalogHeader)
	if errors.Is(err, os.ErrNotExist) {
		s.products = append([]catalog.Product(nil), seed...)
		return s.commit(true, false, s.products, nil)
	}
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		p, err := productFromRow(row)
		if err != nil {
			return fmt.Errorf("%w: catalog row %v: %v", ErrMalformedFile, row, err)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate product %s", ErrMalformedFile, p.ID)
		}
		seen[p.ID] = struct{}{}
		s.products = append(s.products, p)
	}
	return nil
}

func (s *FlatFile) loadLedger() error {
	rows, err := readTable(s.ledgerPath, ledgerHeader)
	if errors.Is(err, os.ErrNotExist) {
		return s.commit(false, true, nil, nil)
	}
	if err != nil {
		return err
	}
	for _, row := range rows {
		r, err := recordFromRow(row)
		if err != nil {
			return err
		}
		s.records = append(s.records, r)
	}
	return nil
}

// WithTx runs fn against a working copy of the tables. Writers are
// serialised; the copy replaces the live tables only after the files have
// been rewritten.
func (s *FlatFile) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &flatTx{
		products: append([]catalog.Product(nil), s.products...),
		index:    make(map[string]int, len(s.products)),
	}
	for i, p := range tx.products {
		tx.index[p.ID] = i
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if !tx.catalogDirty && len(tx.appended) == 0 {
		return nil
	}

	records := s.records
	if len(tx.appended) > 0 {
		records = append(append(make([]ledger.Record, 0, len(s.records)+len(tx.appended)), s.records...), tx.appended...)
	}
	if err := s.commit(tx.catalogDirty, len(tx.appended) > 0, tx.products, records); err != nil {
		return err
	}
	s.products = tx.products
	s.records = records
	return nil
}

func (s *FlatFile) commit(writeCatalog, writeLedger bool, products []catalog.Product, records []ledger.Record) error {
	type staged struct{ tmp, dst string }
	var files []staged
	cleanup := func() {
		for _, f := range files {
			_ = os.Remove(f.tmp)
		}
	}

	if writeCatalog {
		rows := make([][]string, 0, len(products))
		for _, p := range products {
			rows = append(rows, productToRow(p))
		}
		tmp, err := stageTable(s.catalogPath, catalogHeader, rows)
		if err != nil {
			return fmt.Errorf("store: stage catalog: %w", err)
		}
		files = append(files, staged{tmp: tmp, dst: s.catalogPath})
	}
	if writeLedger {
		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, recordToRow(r))
		}
		tmp, err := stageTable(s.ledgerPath, ledgerHeader, rows)
		if err != nil {
			cleanup()
			return fmt.Errorf("store: stage ledger: %w", err)
		}
		files = append(files, staged{tmp: tmp, dst: s.ledgerPath})
	}

	type replaced struct{ dst, backup string }
	var done []replaced
	rollback := func(cause error) error {
		errs := []error{cause}
		for i := len(done) - 1; i >= 0; i-- {
			r := done[i]
			var err error
			if r.backup != "" {
				err = s.rename(r.backup, r.dst)
			} else {
				err = os.Remove(r.dst)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("store: restore %s: %w", filepath.Base(r.dst), err))
			}
		}
		return errors.Join(errs...)
	}
	for i, f := range files {
		backup, err := backupTable(f.dst)
		if err != nil {
			files = files[i:]
			cleanup()
			return rollback(fmt.Errorf("store: back up %s: %w", filepath.Base(f.dst), err))
		}
		if err := s.rename(f.tmp, f.dst); err != nil {
			if backup != "" {
				_ = os.Remove(backup)
			}
			files = files[i:]
			cleanup()
			return rollback(fmt.Errorf("store: replace %s: %w", filepath.Base(f.dst), err))
		}
		done = append(done, replaced{dst: f.dst, backup: backup})
	}
	for _, r := range done {
		if r.backup != "" {
			_ = os.Remove(r.backup)
		}
	}
	return nil
}

// backupTable keeps the current version of path next to it and returns the
// backup name, or "" when path does not exist yet.
func backupTable(path string) (string, error) {
	backup := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".prev")
	_ = os.Remove(backup)
	err := os.Link(path, backup)
	if err == nil {
		return backup, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		return "", err
	}
	return backup, nil
}

// ListProducts returns a copy of the catalog in insertion order.
func (s *FlatFile) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return append([]catalog.Product(nil), s.products...), nil
}

// ListRecords returns a copy of the ledger in append order.
func (s *FlatFile) ListRecords(ctx context.Context) ([]ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return append([]ledger.Record(nil), s.records...), nil
}

// Close marks the store closed. Files are already durable.
func (s *FlatFile) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type flatTx struct {
	products     []catalog.Product
	index        map[string]int
	appended     []ledger.Record
	catalogDirty bool
}

func (tx *flatTx) GetProductForUpdate(_ context.Context, id string) (catalog.Product, error) {
	i, ok := tx.index[catalog.NormalizeID(id)]
	if !ok {
		return catalog.Product{}, fmt.Errorf("%w: %s", catalog.ErrUnknownProduct, id)
	}
	return tx.products[i], nil
}

func (tx *flatTx) InsertProduct(_ context.Context, p catalog.Product) error {
	if _, ok := tx.index[p.ID]; ok {
		return fmt.Errorf("%w: %s", catalog.ErrDuplicateProduct, p.ID)
	}
	tx.index[p.ID] = len(tx.products)
	tx.products = append(tx.products, p)
	tx.catalogDirty = true
	return nil
}

func (tx *flatTx) UpdateStock(_ context.Context, id string, stock int) error {
	i, ok := tx.index[catalog.NormalizeID(id)]
	if !ok {
		return fmt.Errorf("%w: %s", catalog.ErrUnknownProduct, id)
	}
	if stock < 0 {
		return fmt.Errorf("store: negative stock for %s", id)
	}
	tx.products[i].Stock = stock
	tx.catalogDirty = true
	return nil
}

func (tx *flatTx) AppendRecords(_ context.Context, records []ledger.Record) error {
	tx.appended = append(tx.appended, records...)
	return nil
}
