// Package database opens the configured database driver and builds the
// repositories on top of it.
package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/faculty-files/internal/config"
	"github.com/prn-tf/faculty-files/internal/repository"
	"github.com/prn-tf/faculty-files/internal/repository/postgres"
	"github.com/prn-tf/faculty-files/internal/repository/sqlite"
)

// Database is an open connection with its schema tooling.
type Database interface {
	repository.DatabaseHealth
	repository.Migrator
}

// Result contains the created repositories and database connection.
type Result struct {
	Repos    *repository.Repositories
	Database Database
	Driver   string
}

// Open connects to the database named by cfg.Driver.
// Migrations are not applied; call Database.Migrate when wanted.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Result, error) {
	logger = logger.With().Str("component", "database").Str("driver", cfg.Driver).Logger()

	switch cfg.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &Result{
			Repos: &repository.Repositories{
				Activity: postgres.NewActivityRepository(db),
				User:     postgres.NewUserRepository(db),
			},
			Database: db,
			Driver:   cfg.Driver,
		}, nil

	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.ConfigFrom(cfg), logger)
		if err != nil {
			return nil, err
		}
		return &Result{
			Repos: &repository.Repositories{
				Activity: sqlite.NewActivityRepository(db),
				User:     sqlite.NewUserRepository(db),
			},
			Database: db,
			Driver:   cfg.Driver,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", repository.ErrUnsupportedDriver, cfg.Driver)
	}
}
