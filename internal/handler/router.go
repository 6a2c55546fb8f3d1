package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prn-tf/faculty-files/internal/auth"
	"github.com/prn-tf/faculty-files/internal/metrics"
	"github.com/prn-tf/faculty-files/internal/service"
)

// Router wires the HTTP API.
type Router struct {
	s3Handler      *S3Handler
	holdingHandler *HoldingHandler
	storage        *service.StorageService
	database       HealthChecker
	sessions       *auth.SessionStore
	cookieName     string
	metrics        *metrics.Metrics
	maxBodySize    int64
	logger         zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	StorageService *service.StorageService
	UploadService  *service.UploadService

	// Holding is optional; without it POST /api/holding is not served.
	Holding HoldingWriter

	// Database backs GET /health. Optional.
	Database HealthChecker

	// Sessions resolves the caller for activity entries. Optional.
	Sessions   *auth.SessionStore
	CookieName string

	Metrics     *metrics.Metrics
	MaxBodySize int64
	Logger      zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	rt := &Router{
		s3Handler:   NewS3Handler(config.StorageService, config.UploadService, config.Logger),
		storage:     config.StorageService,
		database:    config.Database,
		sessions:    config.Sessions,
		cookieName:  config.CookieName,
		metrics:     config.Metrics,
		maxBodySize: config.MaxBodySize,
		logger:      config.Logger.With().Str("component", "router").Logger(),
	}
	if config.Holding != nil {
		rt.holdingHandler = NewHoldingHandler(config.Holding, config.Logger)
	}
	return rt
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(rt.logger))
	r.Use(Metrics(rt.metrics))
	r.Use(middleware.Recoverer)

	// Health check (no session, no body)
	r.Get("/health", rt.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(MaxBodySize(rt.maxBodySize))
		r.Use(auth.Middleware(rt.sessions, rt.cookieName, rt.logger))

		r.Post("/s3/{action}", rt.s3Handler.HandleAction)
		if rt.holdingHandler != nil {
			r.Post("/holding", rt.holdingHandler.HandleUpload)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
