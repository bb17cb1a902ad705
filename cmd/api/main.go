// Package main provides the entrypoint for the CitySense API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/citysense/citysense/internal/api"
	"github.com/citysense/citysense/internal/api/middleware"
	"github.com/citysense/citysense/internal/corridor"
	"github.com/citysense/citysense/internal/database"
	"github.com/citysense/citysense/internal/geocoding"
	"github.com/citysense/citysense/internal/hazard"
	"github.com/citysense/citysense/internal/navigation"
	"github.com/citysense/citysense/internal/overlay"
	"github.com/citysense/citysense/internal/provider/resilience"
	"github.com/citysense/citysense/internal/routing"
	"github.com/citysense/citysense/internal/routing/mapbox"
	"github.com/citysense/citysense/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "citysense-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting CitySense API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Provider health registry
	providerRegistry := resilience.NewRegistry()

	// Initialize hazard snapshot service backed by Postgres
	hazardRepo := hazard.NewPostgresRepository(pool)
	hazardService := hazard.NewService(hazard.ServiceConfig{
		Provider: hazard.NewRepositoryProvider(hazardRepo, "postgres"),
		Logger:   log,
	})
	log.Info().Msg("hazard service initialized")

	// Initialize routing backed by Mapbox
	mapboxToken := os.Getenv("MAPBOX_ACCESS_TOKEN")
	if mapboxToken == "" {
		log.Warn().Msg("MAPBOX_ACCESS_TOKEN not set - routing and geocoding will fail")
	}

	mapboxClient := mapbox.NewClient(mapbox.ClientConfig{
		AccessToken: mapboxToken,
		Registry:    providerRegistry,
		Logger:      log,
	})
	routingService := routing.NewService(routing.ServiceConfig{
		Provider: mapboxClient,
		Logger:   log,
	})
	planner := routing.NewPlanner(routing.PlannerConfig{
		Directions: routingService,
		Hazards:    hazardService,
		Logger:     log,
	})
	log.Info().Msg("routing service initialized")

	// Initialize corridor synthesis and the overlay registry
	synthesizer := corridor.NewSynthesizer(corridor.SynthesizerConfig{
		Paths:  routingService,
		Logger: log,
	})
	overlays := overlay.NewRegistry()

	// Initialize geocoding
	geocoder := geocoding.NewClient(geocoding.ClientConfig{
		AccessToken: mapboxToken,
		Registry:    providerRegistry,
		Logger:      log,
	})
	log.Info().Msg("geocoding service initialized")

	// Initialize navigation session manager. Announcements go to the log;
	// speech synthesis happens client-side.
	navManager := navigation.NewManager(navigation.ManagerConfig{
		Directions: routingService,
		Announcer:  navigation.LogAnnouncer{Logger: log},
		Overlays:   overlays,
		Logger:     log,
	})
	log.Info().Msg("navigation manager initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		Hazards:     hazardService,
		Corridors:   synthesizer,
		Overlays:    overlays,
		Planner:     planner,
		Geocoder:    geocoder,
		Navigation:  navManager,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
