// Package analytics aggregates the catalog and ledger into the dashboard
// KPIs and chart series.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/forecast"
	"github.com/odyssey-erp/odyssey-pos/internal/ledger"
)

// Chart sizing and windows.
const (
	TrendDays = 30
	TopN      = 5
)

// Summary holds the headline KPIs.
type Summary struct {
	TotalSales     decimal.Decimal `json:"total_sales"`
	Orders         int             `json:"orders"`
	AverageOrder   decimal.Decimal `json:"average_order"`
	StockValuation decimal.Decimal `json:"stock_valuation"`
	Products       int             `json:"products"`
	LowStockCount  int             `json:"low_stock_count"`
	AlertLevel     int             `json:"alert_level"`
}

// DayTotal is one point of the sales trend.
type DayTotal struct {
	Day   string          `json:"day"`
	Total decimal.Decimal `json:"total"`
}

// SalespersonTotal aggregates sales per salesperson.
type SalespersonTotal struct {
	Salesperson string          `json:"salesperson"`
	Total       decimal.Decimal `json:"total"`
	Orders      int             `json:"orders"`
}

// ProductMetric is a product ranked by value or units.
type ProductMetric struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Stock     int             `json:"stock"`
	Value     decimal.Decimal `json:"value"`
	Low       bool            `json:"low"`
}

// Dashboard is everything the dashboard page shows.
type Dashboard struct {
	GeneratedAt   time.Time           `json:"generated_at"`
	Summary       Summary             `json:"summary"`
	Display       map[string]string   `json:"display"`
	Trend         []DayTotal          `json:"trend"`
	BySalesperson []SalespersonTotal  `json:"by_salesperson"`
	TopValue      []ProductMetric     `json:"top_value"`
	TopStock      []ProductMetric     `json:"top_stock"`
	Depletion     []forecast.Estimate `json:"depletion"`
}

// Summarize computes the KPI cards. Orders are counted per invoice.
func Summarize(products []catalog.Product, records []ledger.Record, alertLevel int) Summary {
	summary := Summary{
		TotalSales:     decimal.Zero,
		AverageOrder:   decimal.Zero,
		StockValuation: decimal.Zero,
		Products:       len(products),
		AlertLevel:     alertLevel,
	}
	invoices := make(map[string]struct{})
	for _, r := range records {
		summary.TotalSales = summary.TotalSales.Add(r.TotalAmount)
		invoices[r.InvoiceRef] = struct{}{}
	}
	summary.Orders = len(invoices)
	if summary.Orders > 0 {
		summary.AverageOrder = summary.TotalSales.Div(decimal.NewFromInt(int64(summary.Orders))).Round(2)
	}
	for _, p := range products {
		summary.StockValuation = summary.StockValuation.Add(p.Value())
		if p.Stock <= alertLevel {
			summary.LowStockCount++
		}
	}
	summary.StockValuation = summary.StockValuation.Round(2)
	return summary
}

// SalesTrend returns daily totals for the days ending at now, oldest first.
// Days without sales are present with a zero total.
func SalesTrend(records []ledger.Record, now time.Time, days int) []DayTotal {
	if days <= 0 {
		days = TrendDays
	}
	end := now.UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -(days - 1))
	totals := make(map[string]decimal.Decimal, days)
	for _, r := range records {
		ts := r.Timestamp.UTC()
		if ts.Before(start) || !ts.Before(end.AddDate(0, 0, 1)) {
			continue
		}
		key := ts.Format("2006-01-02")
		totals[key] = totals[key].Add(r.TotalAmount)
	}
	out := make([]DayTotal, 0, days)
	for d := 0; d < days; d++ {
		key := start.AddDate(0, 0, d).Format("2006-01-02")
		total, ok := totals[key]
		if !ok {
			total = decimal.Zero
		}
		out = append(out, DayTotal{Day: key, Total: total})
	}
	return out
}

// SalesBySalesperson ranks salespeople by total, highest first.
func SalesBySalesperson(records []ledger.Record) []SalespersonTotal {
	totals := make(map[string]*SalespersonTotal)
	invoices := make(map[string]map[string]struct{})
	for _, r := range records {
		entry, ok := totals[r.SalespersonID]
		if !ok {
			entry = &SalespersonTotal{Salesperson: r.SalespersonID, Total: decimal.Zero}
			totals[r.SalespersonID] = entry
			invoices[r.SalespersonID] = make(map[string]struct{})
		}
		entry.Total = entry.Total.Add(r.TotalAmount)
		invoices[r.SalespersonID][r.InvoiceRef] = struct{}{}
	}
	out := make([]SalespersonTotal, 0, len(totals))
	for id, entry := range totals {
		entry.Orders = len(invoices[id])
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Salesperson < out[j].Salesperson
	})
	return out
}

// TopByValue returns the n products with the highest stock valuation.
func TopByValue(products []catalog.Product, n, alertLevel int) []ProductMetric {
	metrics := toMetrics(products, alertLevel)
	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].Value.GreaterThan(metrics[j].Value)
	})
	return head(metrics, n)
}

// TopByStock returns the n products with the most units on hand. Low marks
// products at or below the alert level.
func TopByStock(products []catalog.Product, n, alertLevel int) []ProductMetric {
	metrics := toMetrics(products, alertLevel)
	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].Stock > metrics[j].Stock
	})
	return head(metrics, n)
}

func toMetrics(products []catalog.Product, alertLevel int) []ProductMetric {
	metrics := make([]ProductMetric, 0, len(products))
	for _, p := range products {
		metrics = append(metrics, ProductMetric{
			ProductID: p.ID,
			Name:      p.Name,
			Stock:     p.Stock,
			Value:     p.Value().Round(2),
			Low:       p.Stock <= alertLevel,
		})
	}
	return metrics
}

func head(metrics []ProductMetric, n int) []ProductMetric {
	if n <= 0 {
		n = TopN
	}
	if len(metrics) > n {
		metrics = metrics[:n]
	}
	return metrics
}
