package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/faculty-files/internal/config"
	"github.com/prn-tf/faculty-files/internal/domain"
	"github.com/prn-tf/faculty-files/internal/repository"
)

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{
		Driver:          "sqlite",
		Path:            filepath.Join(t.TempDir(), "faculty.db"),
		JournalMode:     "WAL",
		BusyTimeout:     1000,
		SynchronousMode: "NORMAL",
	}

	res, err := Open(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Database.Close() })

	require.Equal(t, "sqlite", res.Driver)
	require.NoError(t, res.Database.Migrate(ctx))
	require.NoError(t, res.Database.Health(ctx))

	require.NoError(t, res.Repos.User.Upsert(ctx, &domain.User{RoleID: 5, UserType: "admin"}))
	userType, err := res.Repos.User.GetUserTypeByRoleID(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, "admin", userType)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{Driver: "mysql"}, zerolog.Nop())
	require.ErrorIs(t, err, repository.ErrUnsupportedDriver)
}
