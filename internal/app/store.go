package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// OpenStore opens the configured catalog and ledger store. The caller closes it.
func OpenStore(ctx context.Context, cfg *Config, logger *slog.Logger) (store.Store, error) {
	var seed []catalog.Product
	if cfg.SeedDefaultCatalog {
		seed = catalog.DefaultProducts()
	}
	switch cfg.StoreDriver {
	case StoreMemory:
		logger.Info("using in-memory store")
		return store.NewMemory(seed), nil
	case StorePostgres:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx, seed); err != nil {
			_ = pg.Close()
			return nil, err
		}
		logger.Info("using postgres store")
		return pg, nil
	case StoreCSV, "":
		ff, err := store.OpenFlatFile(cfg.DataDir, store.FlatFileOptions{Seed: seed})
		if err != nil {
			return nil, err
		}
		logger.Info("using flat-file store", slog.String("dir", cfg.DataDir))
		return ff, nil
	default:
		return nil, fmt.Errorf("app: unknown store driver %q", cfg.StoreDriver)
	}
}
