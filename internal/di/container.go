package di

import (
	"context"
	"fmt"
	"net/http"

	"broker-removal/internal/adapter/rest"
	"broker-removal/internal/application/port/output"
	"broker-removal/internal/application/service"
	"broker-removal/internal/config"
	"broker-removal/internal/domain/catalog"
	"broker-removal/internal/domain/recipe"
	"broker-removal/internal/infrastructure/browser/rod"
	"broker-removal/internal/infrastructure/evidence"
	"broker-removal/internal/infrastructure/instructions"
	"broker-removal/internal/infrastructure/logger"
	"broker-removal/internal/infrastructure/metrics"
	"broker-removal/internal/infrastructure/storage/memory"
	"broker-removal/internal/infrastructure/storage/postgres"
	"broker-removal/internal/infrastructure/storage/sqlite3"
	"broker-removal/internal/usecase/adapter"
	"broker-removal/internal/usecase/engine"
	"broker-removal/internal/usecase/removal"
	"broker-removal/internal/usecase/tracker"

	"github.com/juju/clock"
)

type Container struct {
	Config   config.Config
	Logger   output.LoggerPort
	Store    output.Store
	Metrics  *metrics.Prometheus
	Adapters *service.AdapterRegistryImpl
	Tracker  *tracker.Tracker
	Service  *removal.Service

	browser output.BrowserPort
}

// NewContainer wires the application. Chrome is started on the first batch,
// so read-only commands never launch it.
func NewContainer(ctx context.Context, cfg config.Config) (*Container, error) {
	log, err := logger.NewLoggerAdapter(logger.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}
	if _, err := store.SeedBrokers(ctx, catalog.Brokers()); err != nil {
		store.Close()
		log.Close()
		return nil, fmt.Errorf("failed to seed broker catalog: %w", err)
	}

	adapters := service.NewAdapterRegistry(adapter.NewGeneric(recipe.DefaultCandidates()))
	if err := adapter.RegisterRecipes(adapters, catalog.Recipes()); err != nil {
		store.Close()
		log.Close()
		return nil, fmt.Errorf("failed to register adapters: %w", err)
	}

	var evidenceStore output.EvidencePort
	if cfg.EvidenceDir != "" {
		fs, err := evidence.NewFileStore(evidence.DefaultConfig(cfg.EvidenceDir))
		if err != nil {
			store.Close()
			log.Close()
			return nil, fmt.Errorf("failed to prepare evidence dir: %w", err)
		}
		evidenceStore = fs
	}

	guides, err := instructions.New()
	if err != nil {
		store.Close()
		log.Close()
		return nil, fmt.Errorf("failed to load instruction guides: %w", err)
	}

	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = cfg.BrowserHeadless
	browserCfg.NoSandbox = cfg.BrowserNoSandbox
	browser := newLazyBrowser(browserCfg, log)

	prom := metrics.New()
	clk := clock.WallClock

	eng := engine.New(
		browser,
		adapters,
		engine.NewPoliteness(cfg.PolitenessDelay, clk),
		engine.Timeouts{
			Navigation:   cfg.NavigationTimeout,
			Interaction:  cfg.InteractionTimeout,
			Submission:   cfg.SubmissionTimeout,
			Confirmation: cfg.ConfirmationTimeout,
		},
		prom,
		evidenceStore,
		log,
		clk,
	)
	tr := tracker.New(store, store, prom, log, clk)
	svc := removal.New(store, store, tr, eng, engine.NewPool(cfg.WorkerPoolSize), guides, log)

	return &Container{
		Config:   cfg,
		Logger:   log,
		Store:    store,
		Metrics:  prom,
		Adapters: adapters,
		Tracker:  tr,
		Service:  svc,
		browser:  browser,
	}, nil
}

// Handler returns the HTTP API with the metrics endpoint mounted.
func (c *Container) Handler() http.Handler {
	routerCfg := rest.DefaultRouterConfig()
	routerCfg.LogJSON = c.Config.LogJSON
	routerCfg.LogLevel = c.Config.LogLevel
	return rest.NewRouter(rest.NewHandler(c.Service, c.Service, c.Logger), c.Metrics.Handler(), routerCfg)
}

func (c *Container) Close() {
	if c.browser != nil {
		c.browser.Close()
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			c.Logger.Warn("Failed to close store", "error", err)
		}
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}

func openStore(ctx context.Context, cfg config.Config) (output.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StoreSQLite:
		return sqlite3.Open(cfg.SQLitePath)
	case config.StorePostgres:
		return postgres.Open(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
