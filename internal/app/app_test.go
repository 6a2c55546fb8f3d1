package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/faculty-files/internal/auth"
	"github.com/prn-tf/faculty-files/internal/config"
	"github.com/prn-tf/faculty-files/internal/domain"
	"github.com/prn-tf/faculty-files/internal/lock"
	"github.com/prn-tf/faculty-files/internal/repository"
	"github.com/prn-tf/faculty-files/internal/service"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:          "sqlite",
			Path:            filepath.Join(t.TempDir(), "faculty.db"),
			JournalMode:     "WAL",
			BusyTimeout:     1000,
			SynchronousMode: "NORMAL",
		},
		S3: config.S3Config{SignedURLExpiry: 3600},
		Holding: config.HoldingConfig{
			Dir:         "/holding",
			MaxFileSize: 1024,
			MaxAge:      time.Hour,
		},
		Activity: config.ActivityConfig{Workers: 1, QueueSize: 8, Timeout: time.Second},
	}
}

func TestNew_WithoutS3(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), zerolog.Nop(), Options{Migrate: true, Fs: afero.NewMemMapFs()})
	require.NoError(t, err)
	a.Start()

	require.Nil(t, a.ObjectStore)
	require.False(t, a.Storage.IsConfigured())
	require.Equal(t, time.Hour, a.Storage.DefaultExpiry())
	require.NoError(t, a.Database.Health(ctx))
	require.IsType(t, &lock.MemoryLocker{}, a.Locker)

	result := a.Uploads.Upload(ctx, service.UploadRequest{
		FileBase64: "eA==",
		Pattern:    domain.PatternFields{PatternType: 4, RecordID: 1, FolderName: "x", FileExtension: "pdf"},
	})
	require.False(t, result.Success)
	require.Equal(t, service.MsgNotConfigured, result.Message)

	name, err := a.Holding.Put(ctx, strings.NewReader("data"), "a.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, name)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}

func TestNew_RepositoriesAndSessions(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), zerolog.Nop(), Options{Migrate: true, Fs: afero.NewMemMapFs()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NoError(t, a.Repos.User.Upsert(ctx, &domain.User{RoleID: 3, UserType: "faculty"}))

	list, err := a.Repos.Activity.ListRecent(ctx, repository.ActivityListOptions{})
	require.NoError(t, err)
	require.Empty(t, list)

	token, err := a.Sessions.Issue(ctx, auth.Identity{UserID: 3, UserType: "faculty"}, time.Minute)
	require.NoError(t, err)
	identity, err := a.Sessions.Lookup(ctx, token)
	require.NoError(t, err)
	require.Equal(t, int64(3), identity.UserID)
}

func TestNew_BadDriverCleansUp(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "mysql"

	_, err := New(context.Background(), cfg, zerolog.Nop(), Options{Fs: afero.NewMemMapFs()})
	require.ErrorIs(t, err, repository.ErrUnsupportedDriver)
}
