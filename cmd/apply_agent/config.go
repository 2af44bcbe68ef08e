package main

import (
	"context"
	"fmt"

	"github.com/jonathan/apply-agent/internal/config"
	"github.com/jonathan/apply-agent/internal/ledger"
	"github.com/jonathan/apply-agent/internal/logging"
	"go.uber.org/zap"
)

// loadConfig reads the file at path, or the environment when path is empty, fills
// defaults and validates. apply runs between loading and merging so flag overrides
// are validated too.
func loadConfig(path string, apply func(*config.Config)) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadConfig(path)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, err
	}
	if apply != nil {
		apply(cfg)
	}

	merged := cfg.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// openLedger opens the configured store and loads its records.
func openLedger(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*ledger.Ledger, error) {
	store, err := ledger.OpenStore(ctx, cfg.LedgerPath, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	l := ledger.New(store, ledger.WithLogger(logger))
	if err := l.LoadExisting(ctx); err != nil {
		_ = l.Close()
		return nil, err
	}
	return l, nil
}
