package analytics

import (
	"errors"
	"fmt"
	"html/template"

	"github.com/odyssey-erp/odyssey-pos/internal/analytics/svg"
)

// Chart names served under /dashboard/charts/{name}.svg.
const (
	ChartSalesTrend         = "sales-trend"
	ChartSalesBySalesperson = "sales-by-salesperson"
	ChartTopStockValue      = "top-stock-value"
	ChartTopStockUnits      = "top-stock-units"
)

// ErrUnknownChart is returned for chart names not listed above.
var ErrUnknownChart = errors.New("analytics: unknown chart")

// ErrNoChartData is returned when a chart has nothing to plot.
var ErrNoChartData = errors.New("analytics: no chart data")

// RenderChart draws the named chart from a dashboard snapshot.
func RenderChart(name string, dash Dashboard) (template.HTML, error) {
	switch name {
	case ChartSalesTrend:
		if len(dash.Trend) == 0 {
			return "", ErrNoChartData
		}
		series := make([]float64, len(dash.Trend))
		labels := make([]string, len(dash.Trend))
		for i, point := range dash.Trend {
			series[i] = point.Total.InexactFloat64()
			labels[i] = point.Day[5:]
		}
		return svg.Line(0, 0, series, labels, svg.LineOpts{
			Title:       "Tendencia de ventas",
			Description: fmt.Sprintf("Ventas diarias, ultimos %d dias", len(series)),
			ShowDots:    true,
			ShowMean:    true,
		})
	case ChartSalesBySalesperson:
		if len(dash.BySalesperson) == 0 {
			return "", ErrNoChartData
		}
		series := make([]float64, len(dash.BySalesperson))
		labels := make([]string, len(dash.BySalesperson))
		for i, entry := range dash.BySalesperson {
			series[i] = entry.Total.InexactFloat64()
			labels[i] = entry.Salesperson
		}
		return svg.Bars(0, 0, series, labels, svg.BarOpts{
			Title:       "Ventas por vendedor",
			Description: "Total vendido por cada vendedor",
			Color:       "#6366f1",
		})
	case ChartTopStockValue:
		return productBars(dash.TopValue, func(m ProductMetric) float64 { return m.Value.InexactFloat64() }, svg.BarOpts{
			Title:       "Valor de inventario",
			Description: "Productos con mayor valor en stock",
			Color:       "#0ea5e9",
		})
	case ChartTopStockUnits:
		return productBars(dash.TopStock, func(m ProductMetric) float64 { return float64(m.Stock) }, svg.BarOpts{
			Title:       "Unidades en stock",
			Description: fmt.Sprintf("Rojo: stock igual o menor a %d", dash.Summary.AlertLevel),
			Color:       "#22c55e",
			ShowValues:  true,
		})
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownChart, name)
	}
}

func productBars(metrics []ProductMetric, value func(ProductMetric) float64, opts svg.BarOpts) (template.HTML, error) {
	if len(metrics) == 0 {
		return "", ErrNoChartData
	}
	series := make([]float64, len(metrics))
	labels := make([]string, len(metrics))
	low := make([]bool, len(metrics))
	for i, m := range metrics {
		series[i] = value(m)
		labels[i] = m.ProductID
		low[i] = m.Low
	}
	opts.Highlight = low
	return svg.Bars(0, 0, series, labels, opts)
}
