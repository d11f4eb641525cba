// ABOUTME: Application bootstrap wiring config into storage, the AI provider, and services
// ABOUTME: Shared by the CLI commands, the MCP server, and the HTTP server
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/harper/stash/internal/cache"
	"github.com/harper/stash/internal/config"
	"github.com/harper/stash/internal/core"
	"github.com/harper/stash/internal/fetch"
	"github.com/harper/stash/internal/llm"
	"github.com/harper/stash/internal/storage"
	"github.com/harper/stash/internal/storage/postgres"
	"github.com/harper/stash/internal/storage/sqlite"
)

// App holds the wired services for one process
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Store    storage.Store
	AI       llm.Provider
	Registry *prometheus.Registry

	Items     *core.ItemService
	Search    *core.SearchService
	Declutter *core.DeclutterService

	closers []func() error
}

// New opens storage and builds the provider chain and services.
// The caller must Close the App.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}

	a := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	ai, err := a.buildProvider(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.AI = ai

	fetcher := fetch.New(cfg.Fetch.Timeout, cfg.Fetch.MaxBytes, fetch.WithLogger(logger))
	opts := []core.Option{core.WithLogger(logger), core.WithFetcher(fetcher)}
	a.Items = core.NewItemService(store, ai, opts...)
	a.Search = core.NewSearchService(store, ai, opts...)
	a.Declutter = core.NewDeclutterService(store, ai, opts...)

	return a, nil
}

// OpenStore opens the configured storage engine. Postgres schemas are
// migrated first when auto_migrate is on.
func OpenStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(cfg.Database.URL, "up", 0); err != nil {
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, nil
	case config.DriverSQLite, "":
		path := cfg.Database.Path
		if path == "" {
			path = sqlite.DefaultDBPath()
		}
		db, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// ClientConfig maps the openai and embedding settings onto the client
func ClientConfig(cfg *config.Config) llm.ClientConfig {
	return llm.ClientConfig{
		APIKey:              cfg.OpenAI.APIKey,
		BaseURL:             cfg.OpenAI.BaseURL,
		EmbeddingModel:      cfg.OpenAI.EmbeddingModel,
		ClassificationModel: cfg.OpenAI.ClassificationModel,
		VisionModel:         cfg.OpenAI.VisionModel,
		Dimension:           cfg.Embedding.Dimension,
		Timeout:             cfg.OpenAI.Timeout,
		MaxRetries:          cfg.OpenAI.MaxRetries,
		RetryDelay:          cfg.OpenAI.RetryDelay,
	}
}

// buildProvider layers the OpenAI client with the optional Redis embedding
// cache and Prometheus instrumentation
func (a *App) buildProvider(ctx context.Context) (llm.Provider, error) {
	cfg := a.Config
	client := llm.NewClient(ClientConfig(cfg))
	if !client.Available() {
		a.Logger.Debug("OPENAI_API_KEY not set; embeddings and categorization are off")
	}

	var provider llm.Provider = client
	if cfg.Redis.URL != "" && client.Available() {
		rdb, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			a.Logger.Warn("embedding cache disabled", "err", err)
		} else {
			a.closers = append(a.closers, rdb.Close)
			provider = llm.NewCachedProvider(provider, cache.NewEmbeddings(rdb, cfg.Redis.TTL), client.EmbeddingModel(), a.Logger)
		}
	}

	instrumented, err := llm.NewInstrumentedProvider(provider, a.Registry)
	if err != nil {
		return nil, fmt.Errorf("register ai metrics: %w", err)
	}
	return instrumented, nil
}

// Close releases everything New opened, newest first
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
