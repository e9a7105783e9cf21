package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/ledger"
)

var (
	catalogHeader = []string{"id", "name", "stock", "unit_price", "category"}
	ledgerHeader  = []string{"order_id", "timestamp", "product_id", "product_name", "quantity", "net_amount", "total_amount", "salesperson_id", "invoice_ref"}
)

// ErrMalformedFile indicates a table file that cannot be parsed.
var ErrMalformedFile = errors.New("store: malformed table file")

func readTable(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(header)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedFile, filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	for i, col := range header {
		if rows[0][i] != col {
			return nil, fmt.Errorf("%w: %s: unexpected column %q", ErrMalformedFile, filepath.Base(path), rows[0][i])
		}
	}
	return rows[1:], nil
}

// stageTable writes rows to a temp file next to path and returns its name.
// The caller renames it into place.
func stageTable(path string, header []string, rows [][]string) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", err
	}
	name := tmp.Name()
	if err := writeRows(tmp, header, rows); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

func writeRows(w io.Writer, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func productToRow(p catalog.Product) []string {
	return []string{p.ID, p.Name, strconv.Itoa(p.Stock), p.UnitPrice.String(), p.Category}
}

func productFromRow(row []string) (catalog.Product, error) {
	return catalog.ParseProduct(row[0], row[1], row[2], row[3], row[4])
}

func recordToRow(r ledger.Record) []string {
	return []string{
		r.OrderID,
		r.Timestamp.UTC().Format(time.RFC3339Nano),
		r.ProductID,
		r.ProductName,
		strconv.Itoa(r.Quantity),
		r.NetAmount.StringFixed(2),
		r.TotalAmount.StringFixed(2),
		r.SalespersonID,
		r.InvoiceRef,
	}
}

func recordFromRow(row []string) (ledger.Record, error) {
	ts, err := time.Parse(time.RFC3339Nano, row[1])
	if err != nil {
		return ledger.Record{}, fmt.Errorf("%w: timestamp %q", ErrMalformedFile, row[1])
	}
	qty, err := strconv.Atoi(row[4])
	if err != nil {
		return ledger.Record{}, fmt.Errorf("%w: quantity %q", ErrMalformedFile, row[4])
	}
	net, err := decimal.NewFromString(row[5])
	if err != nil {
		return ledger.Record{}, fmt.Errorf("%w: net_amount %q", ErrMalformedFile, row[5])
	}
	total, err := decimal.NewFromString(row[6])
	if err != nil {
		return ledger.Record{}, fmt.Errorf("%w: total_amount %q", ErrMalformedFile, row[6])
	}
	return ledger.Record{
		OrderID:       row[0],
		Timestamp:     ts,
		ProductID:     row[2],
		ProductName:   row[3],
		Quantity:      qty,
		NetAmount:     net,
		TotalAmount:   total,
		SalespersonID: row[7],
		InvoiceRef:    row[8],
	}, nil
}
