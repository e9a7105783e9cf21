package inventory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/notify"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// Service coordinates catalog maintenance.
type Service struct {
	store      store.Store
	notifier   Notifier
	cache      Invalidator
	alertLevel int
	logger     *slog.Logger
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	AlertLevel int
}

// NewService builds Service. notifier and cache may be nil.
func NewService(st store.Store, notifier Notifier, cache Invalidator, cfg ServiceConfig, logger *slog.Logger) *Service {
	if cfg.AlertLevel <= 0 {
		cfg.AlertLevel = DefaultAlertLevel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, notifier: notifier, cache: cache, alertLevel: cfg.AlertLevel, logger: logger}
}

// AddProduct validates the raw input and inserts a new catalog row.
func (s *Service) AddProduct(ctx context.Context, input AddProductInput) (catalog.Product, error) {
	product, err := catalog.ParseProduct(input.ID, input.Name, input.Stock, input.UnitPrice, input.Category)
	if err != nil {
		return catalog.Product{}, err
	}
	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InsertProduct(ctx, product)
	})
	if err != nil {
		return catalog.Product{}, err
	}
	s.afterChange(ctx, fmt.Sprintf("[INVENTARIO] Producto %s (%s) agregado con %d unidades", product.ID, product.Name, product.Stock))
	return product, nil
}

// ListProducts returns the full catalog.
func (s *Service) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	return s.store.ListProducts(ctx)
}

// GetProduct returns a single product by id.
func (s *Service) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return catalog.Product{}, err
	}
	id = catalog.NormalizeID(id)
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return catalog.Product{}, fmt.Errorf("%w: %s", catalog.ErrUnknownProduct, id)
}

// LowStock lists products with stock at or below the alert level.
func (s *Service) LowStock(ctx context.Context) (LowStockSummary, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return LowStockSummary{}, err
	}
	low := FilterLowStock(products, s.alertLevel)
	return LowStockSummary{AlertLevel: s.alertLevel, Count: len(low), Products: low}, nil
}

// AlertLevel returns the configured low-stock threshold.
func (s *Service) AlertLevel() int {
	return s.alertLevel
}

// FilterLowStock returns the products with stock <= level, in catalog order.
func FilterLowStock(products []catalog.Product, level int) []catalog.Product {
	out := make([]catalog.Product, 0)
	for _, p := range products {
		if p.Stock <= level {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) afterChange(ctx context.Context, text string) {
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump dashboard cache", slog.Any("error", err))
		}
	}
	if s.notifier != nil {
		s.notifier.Post(ctx, text, notify.CategoryInfo)
	}
}
