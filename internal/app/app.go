// Package app builds the object graph shared by the server and the admin CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/prn-tf/faculty-files/internal/activity"
	"github.com/prn-tf/faculty-files/internal/auth"
	"github.com/prn-tf/faculty-files/internal/cache/memory"
	"github.com/prn-tf/faculty-files/internal/cache/redis"
	"github.com/prn-tf/faculty-files/internal/config"
	"github.com/prn-tf/faculty-files/internal/holding"
	"github.com/prn-tf/faculty-files/internal/lock"
	"github.com/prn-tf/faculty-files/internal/metrics"
	"github.com/prn-tf/faculty-files/internal/repository"
	"github.com/prn-tf/faculty-files/internal/repository/database"
	"github.com/prn-tf/faculty-files/internal/service"
	"github.com/prn-tf/faculty-files/internal/storage"
	"github.com/prn-tf/faculty-files/internal/storage/s3store"
)

// cacheKeyPrefix namespaces every Redis key written by this service.
const cacheKeyPrefix = "faculty:"

// Options tune what New builds.
type Options struct {
	// Migrate applies pending schema migrations after connecting.
	Migrate bool

	// Fs backs the holding area. Defaults to the OS filesystem.
	Fs afero.Fs
}

// App holds the long-lived components of one process.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	Database database.Database
	Repos    *repository.Repositories
	Cache    repository.Cache
	Sessions *auth.SessionStore
	Locker   lock.Locker

	// ObjectStore is nil when S3 is not configured.
	ObjectStore storage.ObjectStore

	Storage    *service.StorageService
	Uploads    *service.UploadService
	Holding    *holding.Store
	Dispatcher *activity.Dispatcher
	Binder     *activity.Binder
	Janitor    *holding.Janitor

	closers []func() error
}

// New connects to every configured dependency and wires the services.
// On error, anything already opened is closed.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}
	if err := a.build(ctx, opts); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, opts Options) error {
	cfg, logger := a.Config, a.Logger

	// Database
	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.Database = db.Database
	a.Repos = db.Repos
	a.closers = append(a.closers, db.Database.Close)

	if opts.Migrate {
		if err := db.Database.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Cache and sessions
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.Cache = redis.NewCache(client, cacheKeyPrefix)
		a.Locker = lock.NewRedisLocker(client, cacheKeyPrefix)
		a.closers = append(a.closers, func() error { return closeRedis(client) })
		logger.Info().Str("addr", cfg.Redis.Addr()).Msg("using redis session cache")
	} else {
		mem := memory.NewCache()
		a.Cache = mem
		a.Locker = lock.NewMemoryLocker()
		a.closers = append(a.closers, func() error { mem.Stop(); return nil })
		logger.Info().Msg("using in-memory session cache")
	}
	a.Sessions = auth.NewSessionStore(a.Cache)

	// Object store
	if cfg.S3.IsConfigured() {
		store, err := s3store.New(ctx, cfg.S3, logger)
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		a.ObjectStore = store
	} else {
		logger.Warn().Msg("S3 is not configured; storage operations are disabled")
	}
	a.Storage = service.NewStorageService(a.ObjectStore, cfg.S3.DefaultExpiry(), a.Metrics, logger)

	// Holding area
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	a.Holding, err = holding.NewStore(fs, cfg.Holding.Dir, cfg.Holding.MaxFileSize, logger)
	if err != nil {
		return err
	}
	a.Janitor = holding.NewJanitor(a.Holding, a.Locker, a.Metrics, logger, holding.JanitorConfig{
		Interval: cfg.Holding.SweepInterval,
		MaxAge:   cfg.Holding.MaxAge,
	})

	// Activity log
	a.Dispatcher = activity.NewDispatcher(activity.DispatcherConfig{
		Workers:   cfg.Activity.Workers,
		QueueSize: cfg.Activity.QueueSize,
		Timeout:   cfg.Activity.Timeout,
	}, a.Metrics, logger)
	a.Binder = activity.NewBinder(a.Repos.Activity, a.Repos.User, a.Sessions, a.Dispatcher, a.Metrics, logger)

	a.Uploads = service.NewUploadService(a.Storage, a.Holding, a.Locker, a.Binder, logger)

	return nil
}

// Start launches the background workers.
func (a *App) Start() {
	a.Dispatcher.Start()
	if a.Config.Holding.SweepInterval > 0 {
		a.Janitor.Start()
	}
}

// Close stops the background workers, draining queued activity entries,
// and closes connections in reverse order of opening.
func (a *App) Close() error {
	if a.Janitor != nil {
		a.Janitor.Stop()
	}
	if a.Dispatcher != nil {
		a.Dispatcher.Stop()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func closeRedis(client *goredis.Client) error {
	if err := client.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}
