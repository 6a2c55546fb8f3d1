package repository

import "context"

// Repositories holds all repository instances.
type Repositories struct {
	Activity ActivityRepository
	User     UserRepository
}

// DatabaseHealth is an interface for database health checks.
// This interface satisfies handler.DatabaseChecker for health endpoints.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}

// Migrator applies and reports embedded schema migrations.
type Migrator interface {
	Migrate(ctx context.Context) error
	MigrationStatus(ctx context.Context) ([]MigrationStatus, error)
}

// MigrationStatus describes one embedded migration.
type MigrationStatus struct {
	Version string
	Applied bool
}
