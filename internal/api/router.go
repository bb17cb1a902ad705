// Package api provides the HTTP API for CitySense.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/citysense/citysense/internal/api/handler"
	"github.com/citysense/citysense/internal/api/middleware"
	"github.com/citysense/citysense/internal/corridor"
	"github.com/citysense/citysense/internal/geocoding"
	"github.com/citysense/citysense/internal/hazard"
	"github.com/citysense/citysense/internal/navigation"
	"github.com/citysense/citysense/internal/overlay"
	"github.com/citysense/citysense/internal/routing"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	Hazards     *hazard.Service
	Corridors   *corridor.Synthesizer
	Overlays    *overlay.Registry
	Planner     *routing.Planner
	Geocoder    geocoding.Provider
	Navigation  *navigation.Manager
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "citysense-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Hazards)
	hazardHandler := handler.NewHazardHandler(cfg.Hazards, cfg.Corridors, cfg.Overlays)
	routeHandler := handler.NewRouteHandler(cfg.Planner, cfg.Overlays)
	corridorHandler := handler.NewCorridorHandler(cfg.Hazards, cfg.Corridors, cfg.Overlays)
	geocodeHandler := handler.NewGeocodeHandler(cfg.Geocoder)
	navigationHandler := handler.NewNavigationHandler(cfg.Planner, cfg.Navigation)

	// Create rate limit middleware for different endpoint categories
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(standardRateLimit).Get("/status", opsHandler.SystemStatus)
		})

		// Hazard data endpoints - standard rate limiting
		r.Route("/hazards", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/samples", hazardHandler.ListSamples)
			r.Get("/layers/{kind}", hazardHandler.GetLayer)
		})

		// Route search - expensive compute, strict rate limiting
		r.With(expensiveRateLimit).Post("/routes:search", routeHandler.SearchRoutes)

		// Corridor synthesis - expensive compute, strict rate limiting
		r.With(expensiveRateLimit).Post("/corridors:synthesize", corridorHandler.Synthesize)

		// Geocoding endpoints - standard rate limiting
		r.Route("/geocode", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/suggest", geocodeHandler.Suggest)
			r.Get("/forward", geocodeHandler.Forward)
			r.Get("/reverse", geocodeHandler.Reverse)
		})

		// Navigation sessions - standard rate limiting
		r.Route("/navigation/sessions", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Post("/", navigationHandler.StartSession)
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", navigationHandler.GetSession)
				r.Post("/position", navigationHandler.UpdatePosition)
				r.Post("/mute", navigationHandler.SetMuted)
				r.Delete("/", navigationHandler.StopSession)
			})
		})
	})

	return r
}
