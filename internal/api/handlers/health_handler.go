// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"net/http"
	"time"

	"norelock.dev/tunegate/backend/internal/utils"
)

// HealthCheck probes one dependency.
type HealthCheck func(r *http.Request) error

// HealthHandler handles HTTP requests related to system health.
type HealthHandler struct {
	logger      *utils.Logger
	environment string
	checks      map[string]HealthCheck
	startTime   time.Time
}

// NewHealthHandler creates a new health handler. Checks are probed on every
// request; a nil check map means the process being up is the only signal.
func NewHealthHandler(environment string, checks map[string]HealthCheck, logger *utils.Logger) *HealthHandler {
	return &HealthHandler{
		logger:      logger.Named("health_handler"),
		environment: environment,
		checks:      checks,
		startTime:   time.Now(),
	}
}

// Check handles requests to check the health of the system.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := "up"
	components := make(map[string]string, len(h.checks))

	for name, check := range h.checks {
		if err := check(r); err != nil {
			h.logger.Warn("Health check failed", "component", name, "error", err.Error())
			components[name] = "down"
			status = "down"
			continue
		}
		components[name] = "up"
	}

	response := map[string]any{
		"status":      status,
		"environment": h.environment,
		"uptime":      time.Since(h.startTime).String(),
		"components":  components,
	}

	statusCode := http.StatusOK
	if status != "up" {
		statusCode = http.StatusServiceUnavailable
	}

	utils.RespondWithJSON(w, statusCode, response)
}
