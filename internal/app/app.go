// Package app wires configuration into a running assistant pipeline.
package app

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"

	"monsurface-assistant/internal/access"
	"monsurface-assistant/internal/brands"
	"monsurface-assistant/internal/catalog"
	"monsurface-assistant/internal/config"
	"monsurface-assistant/internal/contextutil"
	"monsurface-assistant/internal/llm"
	"monsurface-assistant/internal/service"
	"monsurface-assistant/internal/storage"
)

// App holds the wired pipeline and the resources it owns.
type App struct {
	Catalog   *storage.Catalog
	Assistant service.Assistant

	cfg     *config.Config
	closers []func() error
}

// New opens the catalog and ledger and assembles the pipeline. A missing or
// unreadable catalog snapshot is not fatal: the pipeline answers with the
// catalog-unavailable reply until a snapshot is loaded.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := contextutil.LoggerFromContext(ctx)
	a := &App{cfg: cfg}

	table, err := brands.Load(cfg.BrandsFile)
	if err != nil {
		return nil, service.WrapError(err, "load brand table")
	}

	a.Catalog = storage.NewCatalog()
	a.closers = append(a.closers, a.Catalog.Close)
	if err := a.Catalog.Load(cfg.CatalogDBPath); err != nil {
		logger.WarnContext(ctx, "catalog not loaded", "path", cfg.CatalogDBPath, "error", err)
	} else {
		logger.InfoContext(ctx, "catalog loaded", "path", cfg.CatalogDBPath)
	}

	ledger, err := a.openLedger(ctx)
	if err != nil {
		_ = a.Close()
		return nil, service.WrapError(err, "open permission ledger")
	}

	guard := access.NewGuard(ledger,
		access.WithLocation(access.Taipei()),
		access.WithTimeout(cfg.LedgerTimeout),
	)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, cfg.LLMTimeout)

	a.Assistant = service.NewAssistant(
		guard,
		service.NewInterpreter(llmClient, table),
		catalog.NewResolver(a.Catalog, table, cfg.ResultLimit),
		service.NewSynthesizer(llmClient, cfg.TabularThreshold),
		service.Shortcuts{HotURL: cfg.HotSheetURL, TechURL: cfg.TechSheetURL},
	)
	return a, nil
}

func (a *App) openLedger(ctx context.Context) (access.Ledger, error) {
	logger := contextutil.LoggerFromContext(ctx)

	switch a.cfg.LedgerDriver {
	case config.LedgerSheets:
		var opts []option.ClientOption
		if a.cfg.GoogleCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(a.cfg.GoogleCredentialsFile))
		}
		ledger, err := access.NewSheetsLedger(ctx, a.cfg.SecuritySheetID, a.cfg.SecuritySheetRange, access.Taipei(), opts...)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "permission ledger ready", "driver", config.LedgerSheets, "sheet", a.cfg.SecuritySheetRange)
		return ledger, nil
	default:
		repo, err := OpenLedgerRepo(a.cfg.LedgerDBPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, repo.Close)
		logger.InfoContext(ctx, "permission ledger ready", "driver", config.LedgerSQLite, "path", a.cfg.LedgerDBPath)
		return repo, nil
	}
}

// WatchCatalog reloads the catalog whenever its snapshot is replaced, until
// ctx is cancelled.
func (a *App) WatchCatalog(ctx context.Context) error {
	w, err := storage.NewWatcher(a.Catalog, a.cfg.CatalogDBPath)
	if err != nil {
		return service.WrapError(err, "watch catalog")
	}
	go w.Run(ctx)
	return nil
}

// Close releases the catalog and ledger.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LedgerRepo is a migrated SQLite ledger that owns its connection.
type LedgerRepo struct {
	*storage.LedgerRepo
	close func() error
}

// OpenLedgerRepo opens and migrates the SQLite ledger at path.
func OpenLedgerRepo(path string) (*LedgerRepo, error) {
	db, err := storage.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	if err := storage.MigrateLedger(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate ledger: %w", err)
	}
	return &LedgerRepo{LedgerRepo: storage.NewLedgerRepo(db), close: db.Close}, nil
}

// Close closes the underlying database.
func (r *LedgerRepo) Close() error {
	return r.close()
}
