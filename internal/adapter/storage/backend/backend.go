// Package backend opens the storage implementation named in the config.
package backend

import (
	"context"
	"fmt"

	"github.com/Subhansheikh5843/Stock-backend/internal/adapter/storage/postgres"
	"github.com/Subhansheikh5843/Stock-backend/internal/adapter/storage/sqlite"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/config"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/port"
)

// Open connects to the configured database and brings its schema up to date.
func Open(ctx context.Context, cfg *config.Config) (port.Store, error) {
	var (
		store port.Store
		err   error
	)
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		store, err = postgres.Open(ctx, cfg.DatabaseURL)
	case config.DriverSQLite:
		store, err = sqlite.Open(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
