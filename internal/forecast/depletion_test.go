package forecast

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/ledger"
)

var day0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func product(id, name string, stock int) catalog.Product {
	return catalog.Product{ID: id, Name: name, Stock: stock, UnitPrice: decimal.NewFromInt(1)}
}

func sale(name string, qty int, at time.Time) ledger.Record {
	return ledger.Record{ProductName: name, Quantity: qty, Timestamp: at}
}

func TestEstimateTenDaysRemaining(t *testing.T) {
	products := []catalog.Product{product("A", "Alpha", 100)}
	records := []ledger.Record{
		sale("Alpha", 30, day0),
		sale("Alpha", 40, day0.AddDate(0, 0, 7)),
	}

	got := EstimateDepletion(products, records, DefaultOptions())
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].WindowDays)
	assert.Equal(t, 10.0, got[0].Velocity)
	assert.Equal(t, 10.0, got[0].DaysRemaining)
}

func TestEstimateExcludesIdleProducts(t *testing.T) {
	products := []catalog.Product{product("A", "Alpha", 5), product("B", "Beta", 1)}
	records := []ledger.Record{sale("Alpha", 70, day0)}

	got := EstimateDepletion(products, records, DefaultOptions())
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].ProductID)
}

func TestEstimateMinimumWindow(t *testing.T) {
	products := []catalog.Product{product("A", "Alpha", 10)}
	records := []ledger.Record{sale("Alpha", 7, day0), sale("Alpha", 7, day0.Add(2*time.Hour))}

	got := EstimateDepletion(products, records, DefaultOptions())
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].WindowDays)
	assert.Equal(t, 2.0, got[0].Velocity)
	assert.Equal(t, 5.0, got[0].DaysRemaining)
}

func TestEstimateSortedAscending(t *testing.T) {
	products := []catalog.Product{
		product("C", "Gamma", 130),
		product("A", "Alpha", 20),
		product("B", "Beta", 20),
		product("D", "Delta", 1000),
	}
	records := []ledger.Record{
		sale("Alpha", 70, day0),
		sale("Beta", 70, day0),
		sale("Gamma", 70, day0.AddDate(0, 0, 7)),
		sale("Delta", 70, day0),
	}

	got := EstimateDepletion(products, records, DefaultOptions())
	require.Len(t, got, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{got[0].ProductID, got[1].ProductID, got[2].ProductID})
	assert.Equal(t, 13.0, got[2].DaysRemaining)
}

func TestEstimateOrdersByUnroundedDays(t *testing.T) {
	products := []catalog.Product{
		product("A", "Alpha", 213),
		product("Z", "Zeta", 301),
	}
	records := []ledger.Record{
		sale("Alpha", 490, day0),
		sale("Zeta", 700, day0.AddDate(0, 0, 7)),
	}

	got := EstimateDepletion(products, records, DefaultOptions())
	require.Len(t, got, 2)
	assert.Equal(t, 3.0, got[0].DaysRemaining)
	assert.Equal(t, 3.0, got[1].DaysRemaining)
	assert.Equal(t, "Z", got[0].ProductID)
	assert.Equal(t, "A", got[1].ProductID)
}

func TestEstimateEmptyLedger(t *testing.T) {
	got := EstimateDepletion([]catalog.Product{product("A", "Alpha", 1)}, nil, DefaultOptions())
	assert.Empty(t, got)
}
