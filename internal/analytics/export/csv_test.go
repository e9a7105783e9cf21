package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/ledger"
)

func TestWriteInventoryCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteInventoryCSV(&buf, catalog.DefaultProducts(), 50))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	require.Equal(t, "ID,Producto,Categoria,Stock,Precio,Valor,Stock bajo", lines[0])
	require.Equal(t, "E101,Cable THHN 12AWG,Material,1500,0.75,1125.00,no", lines[1])
	require.Equal(t, "E105,Fusible 10A,Componente,10,0.50,5.00,si", lines[5])
}

func TestWriteSalesCSV(t *testing.T) {
	var buf bytes.Buffer
	records := []ledger.Record{{
		InvoiceRef:    "F20261019120000-abcdef01",
		Timestamp:     time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
		SalespersonID: "ana",
		ProductID:     "E101",
		ProductName:   "Cable THHN 12AWG",
		Quantity:      500,
		NetAmount:     decimal.RequireFromString("375"),
		TotalAmount:   decimal.RequireFromString("401.25"),
	}}
	require.NoError(t, WriteSalesCSV(&buf, records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "F20261019120000-abcdef01,2026-10-19T12:00:00Z,ana,E101,Cable THHN 12AWG,500,375.00,401.25", lines[1])
}
