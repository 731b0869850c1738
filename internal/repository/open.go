package repository

import (
	"context"
	"fmt"
	"log/slog"

	"linkshort/internal/config"
	"linkshort/internal/migrations"
)

// Open migrates (for SQL backends) and connects the store selected by cfg.
// The caller owns the returned store and must Close it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		// The migrator opens the file itself, so its directory must exist first.
		if err := ensureDir(cfg.Store.SQLitePath); err != nil {
			return nil, err
		}
		if err := migrations.Run(migrations.SQLite, "sqlite3://"+cfg.Store.SQLitePath, logger); err != nil {
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		s, err := OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("store opened", "driver", cfg.Store.Driver, "path", cfg.Store.SQLitePath)
		return s, nil

	case config.DriverPostgres:
		if err := migrations.Run(migrations.Postgres, cfg.Store.DatabaseURL, logger); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		s, err := OpenPostgres(ctx, cfg.Store.DatabaseURL, cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
		if err != nil {
			return nil, err
		}
		logger.Info("store opened", "driver", cfg.Store.Driver)
		return s, nil

	case config.DriverRedis:
		s, err := OpenRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		logger.Info("store opened", "driver", cfg.Store.Driver, "addr", cfg.Redis.Addr)
		return s, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
