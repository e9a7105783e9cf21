package inventory

import (
	"context"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/notify"
)

// DefaultAlertLevel is the stock level at or below which a product is low.
const DefaultAlertLevel = 50

// AddProductInput carries raw catalog form values.
type AddProductInput struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Stock     string `json:"stock" validate:"required"`
	UnitPrice string `json:"unit_price" validate:"required"`
	Category  string `json:"category"`
}

// LowStockSummary is the low-stock KPI.
type LowStockSummary struct {
	AlertLevel int               `json:"alert_level"`
	Count      int               `json:"count"`
	Products   []catalog.Product `json:"products"`
}

// Notifier posts feed messages.
type Notifier interface {
	Post(ctx context.Context, text string, category notify.Category) notify.Message
}

// Invalidator drops cached dashboard data after a catalog change.
type Invalidator interface {
	Bump(ctx context.Context) error
}
