package analytics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
)

func TestRenderChartByName(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	products := catalog.DefaultProducts()
	records := sampleRecords(now)
	dash := Dashboard{
		Summary:       Summarize(products, records, 50),
		Trend:         SalesTrend(records, now, TrendDays),
		BySalesperson: SalesBySalesperson(records),
		TopValue:      TopByValue(products, TopN, 50),
		TopStock:      TopByStock(products, TopN, 50),
	}

	for _, name := range []string{ChartSalesTrend, ChartSalesBySalesperson, ChartTopStockValue, ChartTopStockUnits} {
		out, err := RenderChart(name, dash)
		require.NoError(t, err, name)
		require.True(t, strings.HasPrefix(string(out), "<svg"), name)
	}

	units, err := RenderChart(ChartTopStockUnits, dash)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(string(units), `fill="#dc2626"`))

	_, err = RenderChart("pie", dash)
	require.ErrorIs(t, err, ErrUnknownChart)
}

func TestRenderChartWithoutData(t *testing.T) {
	_, err := RenderChart(ChartSalesBySalesperson, Dashboard{})
	require.ErrorIs(t, err, ErrNoChartData)
	_, err = RenderChart(ChartTopStockUnits, Dashboard{})
	require.ErrorIs(t, err, ErrNoChartData)
}
