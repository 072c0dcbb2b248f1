package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is the connectivity check a dependency exposes
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	db       Pinger
	provider Pinger
	logger   *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db, provider Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		db:       db,
		provider: provider,
		logger:   logger.With("component", "health_handler"),
	}
}

// HealthCheck handles GET /v1/health
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "pmts-access",
		"timestamp": time.Now().UTC(),
	})
}

// ReadinessCheck handles GET /v1/ready: both the data service and the
// identity provider must answer
func (h *HealthHandler) ReadinessCheck(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.db.HealthCheck(ctx); err != nil {
		h.logger.Warn("readiness: database unreachable", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not_ready",
			"error":  "database connection failed",
		})
	}

	if err := h.provider.HealthCheck(ctx); err != nil {
		h.logger.Warn("readiness: identity provider unreachable", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not_ready",
			"error":  "identity provider connection failed",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"status": "ready"})
}

// LivenessCheck handles GET /v1/live
func (h *HealthHandler) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "alive"})
}
