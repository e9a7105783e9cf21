// Package export writes printable CSV reports of the catalog and ledger.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/ledger"
)

// WriteInventoryCSV prints the catalog with valuation and a low-stock flag.
func WriteInventoryCSV(w io.Writer, products []catalog.Product, alertLevel int) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"ID", "Producto", "Categoria", "Stock", "Precio", "Valor", "Stock bajo"}); err != nil {
		return err
	}
	for _, p := range products {
		low := "no"
		if p.Stock <= alertLevel {
			low = "si"
		}
		if err := writer.Write([]string{
			p.ID,
			p.Name,
			p.Category,
			strconv.Itoa(p.Stock),
			p.UnitPrice.StringFixed(2),
			p.Value().StringFixed(2),
			low,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSalesCSV prints ledger rows in the order given.
func WriteSalesCSV(w io.Writer, records []ledger.Record) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Factura", "Fecha", "Vendedor", "ID", "Producto", "Cantidad", "Neto", "Total"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write([]string{
			r.InvoiceRef,
			r.Timestamp.UTC().Format(time.RFC3339),
			r.SalespersonID,
			r.ProductID,
			r.ProductName,
			strconv.Itoa(r.Quantity),
			r.NetAmount.StringFixed(2),
			r.TotalAmount.StringFixed(2),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
