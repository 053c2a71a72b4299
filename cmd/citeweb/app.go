package main

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/matsen/citeweb/internal/config"
	"github.com/matsen/citeweb/internal/inspire"
	"github.com/matsen/citeweb/internal/store"
)

// DefaultDatabase is the database used when --database is not given.
const DefaultDatabase = "citeweb.jsonl"

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustLogger builds the stderr logger from --verbosity, exits on error.
func mustLogger() *log.Logger {
	level, err := parseVerbosity(verbosity)
	if err != nil {
		exitWithError(ExitError, "invalid verbosity %q: %v", verbosity, err)
	}
	return newLogger(os.Stderr, level)
}

// newClient creates the INSPIRE-HEP client described by cfg.
func newClient(cfg *config.Config) *inspire.Client {
	return inspire.NewClient(
		inspire.WithBaseURL(cfg.Inspire.BaseURL),
		inspire.WithTimeout(cfg.Inspire.Timeout),
		inspire.WithRateLimit(cfg.Inspire.RateLimit),
		inspire.WithRetry(cfg.Inspire.Attempts, cfg.Inspire.RetryDelay),
	)
}

// mustOpenStore creates a store saving to the first --database path and
// loads every --database path into it, exits on error.
func mustOpenStore(cfg *config.Config, source store.Source, logger *log.Logger) *store.Store {
	if len(databases) == 0 {
		exitWithError(ExitError, "at least one --database is required")
	}

	s := store.New(databases[0], source,
		store.WithLogger(logger),
		store.WithPageSize(cfg.Inspire.PageSize),
		store.WithMaxPages(cfg.Inspire.MaxPages),
	)
	if _, err := s.Load(databases[1:]...); err != nil {
		exitWithError(exitCodeFor(err), "loading database: %v", err)
	}
	return s
}
