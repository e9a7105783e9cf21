package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/forecast"
	"github.com/odyssey-erp/odyssey-pos/internal/ledger"
)

// Source reads the catalog and ledger. store.Store satisfies it.
type Source interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	ListRecords(ctx context.Context) ([]ledger.Record, error)
}

// Config tunes the dashboard.
type Config struct {
	AlertLevel int
	Forecast   forecast.Options
	Locale     language.Tag
	Currency   string
}

// Service assembles dashboards, backed by the Redis snapshot cache.
type Service struct {
	source  Source
	cache   *Cache
	group   singleflight.Group
	cfg     Config
	printer *message.Printer
	logger  *slog.Logger
	now     func() time.Time
}

// NewService wires the data source with the cache. cache may be nil.
func NewService(source Source, cache *Cache, cfg Config, logger *slog.Logger) *Service {
	if cfg.AlertLevel <= 0 {
		cfg.AlertLevel = 50
	}
	if cfg.Forecast == (forecast.Options{}) {
		cfg.Forecast = forecast.DefaultOptions()
	}
	if cfg.Locale == language.Und {
		cfg.Locale = language.AmericanEnglish
	}
	if cfg.Currency == "" {
		cfg.Currency = "$"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:  source,
		cache:   cache,
		cfg:     cfg,
		printer: message.NewPrinter(cfg.Locale),
		logger:  logger,
		now:     time.Now,
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// AlertLevel returns the low-stock threshold used by the dashboard.
func (s *Service) AlertLevel() int {
	return s.cfg.AlertLevel
}

// Bump invalidates cached dashboards.
func (s *Service) Bump(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// Dashboard returns the current dashboard. Concurrent callers share one
// build; the result is cached until the next bump.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	now := s.now().UTC()
	key, err := s.cache.Key(ctx, keyDashboard(now.Format("2006-01-02")))
	if err != nil {
		s.logger.Warn("dashboard cache version", slog.Any("error", err))
		return s.build(ctx, now)
	}

	ch := s.group.DoChan(key, func() (any, error) {
		var dash Dashboard
		err := s.cache.FetchJSON(ctx, key, &dash, func(ctx context.Context) (any, error) {
			return s.build(ctx, now)
		})
		return dash, err
	})
	select {
	case <-ctx.Done():
		return Dashboard{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Dashboard{}, res.Err
		}
		return res.Val.(Dashboard), nil
	}
}

// Depletion runs the depletion estimator on live data.
func (s *Service) Depletion(ctx context.Context) ([]forecast.Estimate, error) {
	products, records, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return forecast.EstimateDepletion(products, records, s.cfg.Forecast), nil
}

// Snapshot loads products and records concurrently.
func (s *Service) Snapshot(ctx context.Context) ([]catalog.Product, []ledger.Record, error) {
	var (
		products []catalog.Product
		records  []ledger.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.source.ListProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.source.ListRecords(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("analytics: load snapshot: %w", err)
	}
	return products, records, nil
}

func (s *Service) build(ctx context.Context, now time.Time) (Dashboard, error) {
	products, records, err := s.Snapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	summary := Summarize(products, records, s.cfg.AlertLevel)
	return Dashboard{
		GeneratedAt:   now,
		Summary:       summary,
		Display:       s.display(summary),
		Trend:         SalesTrend(records, now, TrendDays),
		BySalesperson: SalesBySalesperson(records),
		TopValue:      TopByValue(products, TopN, s.cfg.AlertLevel),
		TopStock:      TopByStock(products, TopN, s.cfg.AlertLevel),
		Depletion:     forecast.EstimateDepletion(products, records, s.cfg.Forecast),
	}, nil
}

func (s *Service) display(summary Summary) map[string]string {
	return map[string]string{
		"total_sales":     s.Money(summary.TotalSales),
		"average_order":   s.Money(summary.AverageOrder),
		"stock_valuation": s.Money(summary.StockValuation),
		"orders":          s.printer.Sprint(number.Decimal(summary.Orders)),
	}
}

// Money formats an amount with the configured currency symbol and locale
// grouping.
func (s *Service) Money(d decimal.Decimal) string {
	return s.cfg.Currency + s.printer.Sprint(number.Decimal(d.InexactFloat64(), number.Scale(2)))
}
