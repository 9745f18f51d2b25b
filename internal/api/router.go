// Package api provides the HTTP API for the application.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"norelock.dev/tunegate/backend/internal/api/handlers"
	appMiddleware "norelock.dev/tunegate/backend/internal/api/middleware"
	"norelock.dev/tunegate/backend/internal/config"
	"norelock.dev/tunegate/backend/internal/services/dispatch"
	"norelock.dev/tunegate/backend/internal/utils"
)

// Router is the main HTTP router for the API.
type Router struct {
	*chi.Mux
	logger *utils.Logger
}

// NewRouter creates a new API router.
func NewRouter(
	dispatcher *dispatch.Dispatcher,
	healthChecks map[string]handlers.HealthCheck,
	cfg *config.Config,
	logger *utils.Logger,
) *Router {
	r := chi.NewRouter()
	apiLogger := logger.Named("api")

	// Create middleware
	recoveryMiddleware := appMiddleware.NewRecoveryMiddleware(apiLogger)
	loggerMiddleware := appMiddleware.NewLoggerMiddleware(apiLogger)
	corsMiddleware := appMiddleware.NewCORSMiddleware(appMiddleware.DefaultCORSConfig(), apiLogger)

	// Create handlers
	gatewayHandler := handlers.NewGatewayHandler(dispatcher, apiLogger)
	healthHandler := handlers.NewHealthHandler(cfg.Environment, healthChecks, apiLogger)

	// Apply global middleware
	r.Use(recoveryMiddleware.Recovery)
	r.Use(loggerMiddleware.Logger)
	r.Use(corsMiddleware.CORS)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Heartbeat("/ping"))

	r.Get("/healthz", healthHandler.Check)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/users", gatewayHandler.PostUser)
		r.Post("/messages", gatewayHandler.PostMessage)
		r.Post("/choices", gatewayHandler.PostChoice)
		r.Get("/search", gatewayHandler.Search)
	})

	return &Router{
		Mux:    r,
		logger: apiLogger,
	}
}
