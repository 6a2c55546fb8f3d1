package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker reports whether a dependency is usable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// healthTimeout bounds the database probe.
const healthTimeout = 2 * time.Second

type healthResponse struct {
	Status       string `json:"status"`
	Database     string `json:"database"`
	S3Configured bool   `json:"s3Configured"`
}

// HandleHealth reports database health and whether S3 is configured.
// An unconfigured object store does not make the service unhealthy.
func (rt *Router) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:       "healthy",
		Database:     "ok",
		S3Configured: rt.storage != nil && rt.storage.IsConfigured(),
	}
	status := http.StatusOK

	if rt.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := rt.database.Health(ctx); err != nil {
			rt.logger.Warn().Err(err).Msg("database health check failed")
			resp.Status = "unhealthy"
			resp.Database = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}
