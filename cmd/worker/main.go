// Package main provides the entrypoint for the CitySense background worker.
// The worker keeps the hazard snapshot fresh and rebuilds overlay layers on
// a timer, and optionally reacts to Pub/Sub job messages.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/citysense/citysense/internal/corridor"
	"github.com/citysense/citysense/internal/database"
	"github.com/citysense/citysense/internal/hazard"
	"github.com/citysense/citysense/internal/overlay"
	"github.com/citysense/citysense/internal/provider/resilience"
	"github.com/citysense/citysense/internal/routing"
	"github.com/citysense/citysense/internal/routing/mapbox"
	"github.com/citysense/citysense/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "citysense-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting CitySense worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	refreshInterval := 5 * time.Minute
	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			log.Fatal().Err(err).Str("value", v).Msg("invalid REFRESH_INTERVAL")
		}
		refreshInterval = parsed
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Initialize hazard snapshot service backed by Postgres
	hazardRepo := hazard.NewPostgresRepository(pool)
	hazardService := hazard.NewService(hazard.ServiceConfig{
		Provider: hazard.NewRepositoryProvider(hazardRepo, "postgres"),
		Logger:   log,
	})

	// Initialize routing for corridor path resolution
	mapboxToken := os.Getenv("MAPBOX_ACCESS_TOKEN")
	if mapboxToken == "" {
		log.Warn().Msg("MAPBOX_ACCESS_TOKEN not set - corridor rebuilds will fail")
	}

	routingService := routing.NewService(routing.ServiceConfig{
		Provider: mapbox.NewClient(mapbox.ClientConfig{
			AccessToken: mapboxToken,
			Registry:    resilience.NewRegistry(),
			Logger:      log,
		}),
		Logger: log,
	})

	synthesizer := corridor.NewSynthesizer(corridor.SynthesizerConfig{
		Paths:  routingService,
		Logger: log,
	})

	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:    worker.DefaultRefreshConfig(),
		Logger:    log,
		Hazards:   hazardService,
		Corridors: synthesizer,
		Overlays:  overlay.NewRegistry(),
	})

	// Create HTTP server for health checks
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"version": Version,
			"metrics": refreshJob.MetricsSnapshot(),
		})
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Start health check server
	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server error")
		}
	}()

	// Start Pub/Sub handler when configured
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	if projectID != "" && subscription != "" {
		pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer pubsubHandler.Close()

		go func() {
			if err := pubsubHandler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		log.Info().Msg("pubsub not configured, running on timer only")
	}

	// Periodic refresh loop. The first run happens immediately so overlay
	// layers exist before the first message or tick.
	go func() {
		runRefresh(ctx, log, refreshJob)

		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runRefresh(ctx, log, refreshJob)
			}
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

func runRefresh(ctx context.Context, log zerolog.Logger, job *worker.RefreshJob) {
	result := job.Run(ctx)
	log.Info().
		Int("total_kinds", result.TotalKinds).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("segments", result.Segments).
		Dur("duration", result.Duration).
		Msg("refresh cycle finished")
}
