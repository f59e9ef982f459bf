package config

import (
	"fmt"
	"time"

	"broker-removal/internal/infrastructure/env"
)

type StoreDriver string

const (
	StoreMemory   StoreDriver = "memory"
	StoreSQLite   StoreDriver = "sqlite"
	StorePostgres StoreDriver = "postgres"
)

type Config struct {
	HTTPAddr string

	StoreDriver StoreDriver
	SQLitePath  string
	DatabaseURL string

	BrowserHeadless  bool
	BrowserNoSandbox bool

	PolitenessDelay time.Duration
	WorkerPoolSize  int

	NavigationTimeout   time.Duration
	InteractionTimeout  time.Duration
	SubmissionTimeout   time.Duration
	ConfirmationTimeout time.Duration

	// EvidenceDir enables failure screenshots when set.
	EvidenceDir string

	LogLevel string
	LogJSON  bool
}

func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8001",
		StoreDriver:         StoreSQLite,
		SQLitePath:          "removal.db",
		BrowserHeadless:     true,
		PolitenessDelay:     2 * time.Second,
		WorkerPoolSize:      2,
		NavigationTimeout:   30 * time.Second,
		InteractionTimeout:  10 * time.Second,
		SubmissionTimeout:   15 * time.Second,
		ConfirmationTimeout: 10 * time.Second,
		LogLevel:            "info",
		LogJSON:             true,
	}
}

// Load reads the configuration from the environment on top of the defaults.
func Load(e *env.EnvService) (Config, error) {
	cfg := DefaultConfig()

	cfg.HTTPAddr = e.GetString("HTTP_ADDR", cfg.HTTPAddr)
	cfg.StoreDriver = StoreDriver(e.GetString("STORE_DRIVER", string(cfg.StoreDriver)))
	cfg.SQLitePath = e.GetString("SQLITE_PATH", cfg.SQLitePath)
	cfg.DatabaseURL = e.Get("DATABASE_URL")

	cfg.BrowserHeadless = e.GetBool("BROWSER_HEADLESS", cfg.BrowserHeadless)
	cfg.BrowserNoSandbox = e.GetBool("BROWSER_NO_SANDBOX", cfg.BrowserNoSandbox)

	cfg.PolitenessDelay = e.GetDuration("POLITENESS_DELAY", cfg.PolitenessDelay)
	cfg.WorkerPoolSize = e.GetInt("WORKER_POOL_SIZE", cfg.WorkerPoolSize)

	cfg.NavigationTimeout = e.GetDuration("NAVIGATION_TIMEOUT", cfg.NavigationTimeout)
	cfg.InteractionTimeout = e.GetDuration("INTERACTION_TIMEOUT", cfg.InteractionTimeout)
	cfg.SubmissionTimeout = e.GetDuration("SUBMISSION_TIMEOUT", cfg.SubmissionTimeout)
	cfg.ConfirmationTimeout = e.GetDuration("CONFIRMATION_TIMEOUT", cfg.ConfirmationTimeout)

	cfg.EvidenceDir = e.Get("EVIDENCE_DIR")

	cfg.LogLevel = e.GetString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogJSON = e.GetBool("LOG_JSON", cfg.LogJSON)

	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORE_DRIVER=postgres needs DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.WorkerPoolSize < 1 {
		return fmt.Errorf("WORKER_POOL_SIZE must be at least 1, got %d", c.WorkerPoolSize)
	}
	if c.PolitenessDelay < 0 {
		return fmt.Errorf("POLITENESS_DELAY must not be negative")
	}
	return nil
}
