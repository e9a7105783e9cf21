package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/ledger"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS pos_products (
    seq        BIGSERIAL,
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    stock      INTEGER NOT NULL CHECK (stock >= 0),
    unit_price NUMERIC(18,4) NOT NULL CHECK (unit_price >= 0),
    category   TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS pos_ledger (
    seq            BIGSERIAL PRIMARY KEY,
    order_id       TEXT NOT NULL UNIQUE,
    ts             TIMESTAMPTZ NOT NULL,
    product_id     TEXT NOT NULL,
    product_name   TEXT NOT NULL,
    quantity       INTEGER NOT NULL,
    net_amount     NUMERIC(18,2) NOT NULL,
    total_amount   NUMERIC(18,2) NOT NULL,
    salesperson_id TEXT NOT NULL,
    invoice_ref    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS pos_ledger_invoice_ref_idx ON pos_ledger (invoice_ref);
`

// Postgres stores both tables in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an open pool. Call EnsureSchema before first use.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema creates the tables when missing and inserts seed products
// into an empty catalog.
func (p *Postgres) EnsureSchema(ctx context.Context, seed []catalog.Product) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	if len(seed) == 0 {
		return nil
	}
	return p.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		var count int
		if err := tx.(*pgTx).tx.QueryRow(ctx, `SELECT COUNT(*) FROM pos_products`).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for _, product := range seed {
			if err := tx.InsertProduct(ctx, product); err != nil {
				return err
			}
		}
		return nil
	})
}

// WithTx runs fn inside a repeatable-read transaction.
func (p *Postgres) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	return db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{tx: tx})
	})
}

// ListProducts returns the catalog in insertion order.
func (p *Postgres) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, stock, unit_price::text, category FROM pos_products ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// ListRecords returns the ledger in append order.
func (p *Postgres) ListRecords(ctx context.Context) ([]ledger.Record, error) {
	rows, err := p.pool.Query(ctx, `SELECT order_id, ts, product_id, product_name, quantity, net_amount::text,
        total_amount::text, salesperson_id, invoice_ref FROM pos_ledger ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ledger.Record
	for rows.Next() {
		var (
			r          ledger.Record
			net, total string
		)
		if err := rows.Scan(&r.OrderID, &r.Timestamp, &r.ProductID, &r.ProductName, &r.Quantity,
			&net, &total, &r.SalespersonID, &r.InvoiceRef); err != nil {
			return nil, err
		}
		if r.NetAmount, err = decimal.NewFromString(net); err != nil {
			return nil, err
		}
		if r.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		r.Timestamp = r.Timestamp.UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) GetProductForUpdate(ctx context.Context, id string) (catalog.Product, error) {
	row := t.tx.QueryRow(ctx, `SELECT id, name, stock, unit_price::text, category FROM pos_products
        WHERE id = $1 FOR UPDATE`, catalog.NormalizeID(id))
	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, fmt.Errorf("%w: %s", catalog.ErrUnknownProduct, id)
	}
	return product, err
}

func (t *pgTx) InsertProduct(ctx context.Context, product catalog.Product) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO pos_products (id, name, stock, unit_price, category)
        VALUES ($1, $2, $3, $4::numeric, $5)`,
		product.ID, product.Name, product.Stock, product.UnitPrice.String(), product.Category)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", catalog.ErrDuplicateProduct, product.ID)
	}
	return err
}

func (t *pgTx) UpdateStock(ctx context.Context, id string, stock int) error {
	tag, err := t.tx.Exec(ctx, `UPDATE pos_products SET stock = $2 WHERE id = $1`, catalog.NormalizeID(id), stock)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", catalog.ErrUnknownProduct, id)
	}
	return nil
}

func (t *pgTx) AppendRecords(ctx context.Context, records []ledger.Record) error {
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`INSERT INTO pos_ledger (order_id, ts, product_id, product_name, quantity, net_amount,
            total_amount, salesperson_id, invoice_ref) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8, $9)`,
			r.OrderID, r.Timestamp, r.ProductID, r.ProductName, r.Quantity,
			r.NetAmount.StringFixed(2), r.TotalAmount.StringFixed(2), r.SalespersonID, r.InvoiceRef)
	}
	return t.tx.SendBatch(ctx, batch).Close()
}

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var (
		product catalog.Product
		price   string
	)
	if err := row.Scan(&product.ID, &product.Name, &product.Stock, &price, &product.Category); err != nil {
		return catalog.Product{}, err
	}
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return catalog.Product{}, err
	}
	product.UnitPrice = parsed
	return product, nil
}
