// Package main is the entry point for the Faculty Files server.
// It serves the storage API used by the faculty information system.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/prn-tf/faculty-files/internal/app"
	"github.com/prn-tf/faculty-files/internal/config"
	"github.com/prn-tf/faculty-files/internal/handler"
	"github.com/prn-tf/faculty-files/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := pflag.StringP("config", "c", os.Getenv("FACULTY_CONFIG"), "path to the configuration file")
	pflag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Starting Faculty Files server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{Migrate: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("error during shutdown")
		}
	}()
	a.Start()

	router := handler.NewRouter(handler.RouterConfig{
		StorageService: a.Storage,
		UploadService:  a.Uploads,
		Holding:        a.Holding,
		Database:       a.Database,
		Sessions:       a.Sessions,
		CookieName:     cfg.Session.CookieName,
		Metrics:        a.Metrics,
		MaxBodySize:    cfg.Server.MaxBodySize,
		Logger:         logger,
	})

	servers := []*http.Server{{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}}
	if cfg.Metrics.Enabled {
		servers = append(servers, metricsServer(cfg.Metrics, a))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen on %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	err = g.Wait()
	logger.Info().Msg("Server stopped")
	return err
}

func metricsServer(cfg config.MetricsConfig, a *app.App) *http.Server {
	r := chi.NewRouter()
	r.Method(http.MethodGet, cfg.Path, a.Metrics.Handler())

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}
}

func init() {
	// Until configuration is loaded, log to stderr in console form.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
