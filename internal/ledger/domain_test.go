package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterApplyNewestFirst(t *testing.T) {
	records := []Record{
		{OrderID: "o1", InvoiceRef: "F1", SalespersonID: "ana"},
		{OrderID: "o1", InvoiceRef: "F1", SalespersonID: "ana"},
		{OrderID: "o2", InvoiceRef: "F2", SalespersonID: "luis"},
		{OrderID: "o3", InvoiceRef: "F3", SalespersonID: "ana"},
	}

	all := Filter{}.Apply(records)
	require.Len(t, all, 4)
	require.Equal(t, "o3", all[0].OrderID)

	byInvoice := Filter{InvoiceRef: "F1"}.Apply(records)
	require.Len(t, byInvoice, 2)

	byPerson := Filter{SalespersonID: "ana", Limit: 2}.Apply(records)
	require.Len(t, byPerson, 2)
	require.Equal(t, "o3", byPerson[0].OrderID)
	require.Equal(t, "o1", byPerson[1].OrderID)

	require.Empty(t, Filter{InvoiceRef: "F9"}.Apply(records))
}
