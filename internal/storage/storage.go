// Package storage opens the configured salary store.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/tarif/internal/config"
	"github.com/JonMunkholm/tarif/internal/core"
	"github.com/JonMunkholm/tarif/internal/storage/postgres"
	"github.com/JonMunkholm/tarif/internal/storage/sqlite"
)

// Open connects the store selected by cfg.Driver. With migrate set the
// schema is created when missing.
func Open(ctx context.Context, cfg config.StorageConfig, migrate bool) (core.Store, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch cfg.Driver {
	case config.DriverSQLite, "":
		store, err := sqlite.Open(ctx, cfg.SQLitePath, migrate)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := store.Migrate(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
