package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/invoice"
	"github.com/odyssey-erp/odyssey-pos/internal/ledger"
	"github.com/odyssey-erp/odyssey-pos/internal/notify"
	"github.com/odyssey-erp/odyssey-pos/internal/pricing"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// Checkout outcomes reported to Metrics.
const (
	OutcomeCommitted         = "committed"
	OutcomeRejected          = "rejected"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeEmissionFailed    = "emission_failed"
	OutcomeStoreFailed       = "store_failed"
)

// Config collects the dependencies of Service. Store and Emitter are required.
type Config struct {
	Store    store.Store
	Emitter  Emitter
	Notifier Notifier
	Cache    Invalidator
	Metrics  Metrics
	Policy   pricing.Policy
	Sessions *Sessions
	Logger   *slog.Logger
}

// Service coordinates carts and checkouts.
type Service struct {
	store    store.Store
	emitter  Emitter
	notifier Notifier
	cache    Invalidator
	metrics  Metrics
	policy   pricing.Policy
	sessions *Sessions
	logger   *slog.Logger
	now      func() time.Time
}

// NewService validates cfg and builds a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil || cfg.Emitter == nil {
		return nil, errors.New("sales: store and emitter are required")
	}
	if cfg.Policy.DiscountRate.IsZero() && cfg.Policy.TaxRate.IsZero() && cfg.Policy.DiscountThreshold.IsZero() {
		cfg.Policy = pricing.DefaultPolicy()
	}
	if cfg.Sessions == nil {
		cfg.Sessions = NewSessions()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		store:    cfg.Store,
		emitter:  cfg.Emitter,
		notifier: cfg.Notifier,
		cache:    cfg.Cache,
		metrics:  cfg.Metrics,
		policy:   cfg.Policy,
		sessions: cfg.Sessions,
		logger:   cfg.Logger,
		now:      time.Now,
	}, nil
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Sessions exposes the cart registry.
func (s *Service) Sessions() *Sessions {
	return s.sessions
}

// Checkout commits a sale. Either every effect happens (invoice written,
// stock decremented, ledger rows appended) or none does.
func (s *Service) Checkout(ctx context.Context, input CheckoutInput) (Receipt, error) {
	salesperson := strings.TrimSpace(input.Salesperson)
	if salesperson == "" {
		s.observe(OutcomeRejected, pricing.Sale{})
		return Receipt{}, ErrSalespersonRequired
	}
	items, err := mergeItems(input.Items)
	if err != nil {
		s.observe(OutcomeRejected, pricing.Sale{})
		return Receipt{}, err
	}

	issuedAt := s.now().UTC()
	var (
		sale    pricing.Sale
		ref     invoice.Reference
		emitted bool
		records []ledger.Record
	)
	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		products := make([]catalog.Product, 0, len(items))
		lines := make([]pricing.Line, 0, len(items))
		for _, item := range items {
			product, err := tx.GetProductForUpdate(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if item.Quantity > product.Stock {
				return &catalog.InsufficientStockError{
					ProductID: product.ID,
					Name:      product.Name,
					Requested: item.Quantity,
					Available: product.Stock,
				}
			}
			products = append(products, product)
			lines = append(lines, pricing.Line{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    item.Quantity,
				UnitPrice:   product.UnitPrice,
			})
		}
		sale = pricing.Price(lines, s.policy)

		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		ref, err = s.emitter.Emit(ctx, invoice.Issue{Salesperson: salesperson, IssuedAt: issuedAt, Sale: sale})
		if err != nil {
			if !errors.Is(err, invoice.ErrDocumentEmission) {
				err = fmt.Errorf("%w: %v", invoice.ErrDocumentEmission, err)
			}
			return err
		}
		emitted = true

		for i, product := range products {
			if err := tx.UpdateStock(ctx, product.ID, product.Stock-items[i].Quantity); err != nil {
				return err
			}
		}
		records = buildRecords(sale, ref.ID, salesperson, issuedAt)
		return tx.AppendRecords(ctx, records)
	})
	if err != nil {
		if emitted {
			s.emitter.Discard(ref)
		}
		s.observe(outcomeFor(err), sale)
		return Receipt{}, err
	}

	s.afterCommit(ctx, ref, sale, salesperson)
	s.observe(OutcomeCommitted, sale)
	return Receipt{Invoice: ref, IssuedAt: issuedAt, Sale: NewSaleView(sale), Records: records}, nil
}

// Quote prices items against the current catalog without changing anything.
func (s *Service) Quote(ctx context.Context, items []Item) (pricing.Sale, error) {
	if len(items) == 0 {
		return pricing.Price(nil, s.policy), nil
	}
	merged, err := mergeItems(items)
	if err != nil {
		return pricing.Sale{}, err
	}
	products, err := s.productIndex(ctx)
	if err != nil {
		return pricing.Sale{}, err
	}
	lines := make([]pricing.Line, 0, len(merged))
	for _, item := range merged {
		product, ok := products[item.ProductID]
		if !ok {
			return pricing.Sale{}, fmt.Errorf("%w: %s", catalog.ErrUnknownProduct, item.ProductID)
		}
		lines = append(lines, pricing.Line{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.UnitPrice,
		})
	}
	return pricing.Price(lines, s.policy), nil
}

// AddToCart checks the product exists and that the cart total for it fits
// current stock, then appends the item. Stock is checked again at checkout.
func (s *Service) AddToCart(ctx context.Context, sessionID string, item Item) (*Session, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if item.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	item.ProductID = catalog.NormalizeID(item.ProductID)
	products, err := s.productIndex(ctx)
	if err != nil {
		return nil, err
	}
	product, ok := products[item.ProductID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownProduct, item.ProductID)
	}
	requested := session.quantity(product.ID) + item.Quantity
	if requested > product.Stock {
		return nil, &catalog.InsufficientStockError{ProductID: product.ID, Name: product.Name, Requested: requested, Available: product.Stock}
	}
	session.add(item)
	return session, nil
}

// CheckoutSession checks out a session's cart and clears it on success.
func (s *Service) CheckoutSession(ctx context.Context, sessionID string) (Receipt, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return Receipt{}, err
	}
	receipt, err := s.Checkout(ctx, CheckoutInput{Salesperson: session.Salesperson, Items: session.Items()})
	if err != nil {
		return Receipt{}, err
	}
	session.Clear()
	return receipt, nil
}

// Orders lists ledger rows newest first.
func (s *Service) Orders(ctx context.Context, filter ledger.Filter) ([]ledger.Record, error) {
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(records), nil
}

func (s *Service) productIndex(ctx context.Context) (map[string]catalog.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}
	return index, nil
}

func (s *Service) afterCommit(ctx context.Context, ref invoice.Reference, sale pricing.Sale, salesperson string) {
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump dashboard cache", slog.Any("error", err))
		}
	}
	if s.notifier != nil {
		text := fmt.Sprintf("[VENTAS] Factura %s por $%s", ref.ID, sale.Total.StringFixed(pricing.Scale))
		if sale.HasDiscount() {
			text += fmt.Sprintf(" (descuento $%s)", sale.Discount.StringFixed(pricing.Scale))
		}
		text += " - vendedor " + salesperson
		s.notifier.Post(ctx, text, notify.CategoryInfo)
	}
	s.logger.Info("sale committed",
		slog.String("invoice", ref.ID),
		slog.String("salesperson", salesperson),
		slog.String("total", sale.Total.StringFixed(pricing.Scale)),
		slog.Int("lines", len(sale.Lines)),
	)
}

func (s *Service) observe(outcome string, sale pricing.Sale) {
	if s.metrics == nil {
		return
	}
	total, lines := 0.0, 0
	if outcome == OutcomeCommitted {
		total, lines = sale.Total.InexactFloat64(), len(sale.Lines)
	}
	s.metrics.ObserveCheckout(outcome, total, lines)
}

func buildRecords(sale pricing.Sale, invoiceRef, salesperson string, at time.Time) []ledger.Record {
	shares := pricing.Allocate(sale)
	records := make([]ledger.Record, 0, len(sale.Lines))
	for i, line := range sale.Lines {
		records = append(records, ledger.Record{
			OrderID:       uuid.NewString(),
			Timestamp:     at,
			ProductID:     line.ProductID,
			ProductName:   line.ProductName,
			Quantity:      line.Quantity,
			NetAmount:     shares[i].Net,
			TotalAmount:   shares[i].Total,
			SalespersonID: salesperson,
			InvoiceRef:    invoiceRef,
		})
	}
	return records
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, catalog.ErrInsufficientStock):
		return OutcomeInsufficientStock
	case errors.Is(err, catalog.ErrUnknownProduct):
		return OutcomeRejected
	case errors.Is(err, invoice.ErrDocumentEmission):
		return OutcomeEmissionFailed
	default:
		return OutcomeStoreFailed
	}
}
