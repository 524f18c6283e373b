package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"olistcli/internal/services"
)

// HealthChecker reports service health
type HealthChecker interface {
	HealthCheck(ctx context.Context) services.HealthStatus
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	service HealthChecker
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service HealthChecker, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /healthz. A degraded status still answers 200;
// the body carries the failing checks.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.service.HealthCheck(r.Context())
	if status.Status != services.HealthHealthy {
		h.logger.WarnContext(r.Context(), "health degraded", slog.Any("checks", status.Checks))
	}
	render.JSON(w, r, status)
}
