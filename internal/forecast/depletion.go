// Package forecast estimates how long current stock lasts at the observed
// sales velocity. The result is a point estimate, not a forecast model.
package forecast

import (
	"math"
	"sort"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/ledger"
)

// Options tunes the estimator.
type Options struct {
	// MinWindowDays is the smallest observation window used for velocity.
	MinWindowDays int
	// HorizonDays limits output to products running out within this many days.
	HorizonDays float64
	// MinVelocity is the units/day at or below which a product counts as idle.
	MinVelocity float64
	// IdleDays is reported for idle products.
	IdleDays float64
}

// DefaultOptions returns 7-day minimum window, 14-day horizon.
func DefaultOptions() Options {
	return Options{MinWindowDays: 7, HorizonDays: 14, MinVelocity: 0.01, IdleDays: 999}
}

// Estimate is a product at risk of running out.
type Estimate struct {
	ProductID     string  `json:"product_id"`
	ProductName   string  `json:"product_name"`
	Stock         int     `json:"stock"`
	TotalSold     int     `json:"total_sold"`
	WindowDays    int     `json:"window_days"`
	Velocity      float64 `json:"velocity"`
	DaysRemaining float64 `json:"days_remaining"`
}

// EstimateDepletion returns the products whose stock lasts HorizonDays or less,
// soonest first. Sales are attributed to products by name.
func EstimateDepletion(products []catalog.Product, records []ledger.Record, opts Options) []Estimate {
	if len(records) == 0 {
		return []Estimate{}
	}
	window := windowDays(records, opts.MinWindowDays)

	sold := make(map[string]int, len(products))
	for _, r := range records {
		sold[r.ProductName] += r.Quantity
	}

	// Ranked on the unrounded days so ties in the reported value keep
	// their true order.
	type ranked struct {
		est  Estimate
		days float64
	}
	var at []ranked
	for _, p := range products {
		total := sold[p.Name]
		velocity := float64(total) / float64(window)
		days := opts.IdleDays
		if velocity > opts.MinVelocity {
			days = float64(p.Stock) / velocity
		}
		if days > opts.HorizonDays {
			continue
		}
		at = append(at, ranked{days: days, est: Estimate{
			ProductID:     p.ID,
			ProductName:   p.Name,
			Stock:         p.Stock,
			TotalSold:     total,
			WindowDays:    window,
			Velocity:      round(velocity, 2),
			DaysRemaining: round(days, 1),
		}})
	}
	sort.SliceStable(at, func(i, j int) bool {
		if at[i].days != at[j].days {
			return at[i].days < at[j].days
		}
		return at[i].est.ProductID < at[j].est.ProductID
	})
	out := make([]Estimate, 0, len(at))
	for _, r := range at {
		out = append(out, r.est)
	}
	return out
}

func windowDays(records []ledger.Record, minDays int) int {
	earliest, latest := records[0].Timestamp, records[0].Timestamp
	for _, r := range records[1:] {
		if r.Timestamp.Before(earliest) {
			earliest = r.Timestamp
		}
		if r.Timestamp.After(latest) {
			latest = r.Timestamp
		}
	}
	days := int(latest.Sub(earliest).Hours() / 24)
	if days < minDays {
		return minDays
	}
	return days
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
