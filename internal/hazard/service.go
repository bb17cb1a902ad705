package hazard

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Provider defines the interface for hazard data providers.
type Provider interface {
	// FetchSnapshot fetches the complete current set of hazard samples.
	// Each fetch is a full-replacement snapshot, never an incremental patch.
	FetchSnapshot(ctx context.Context) (*Snapshot, error)
}

// ServiceConfig holds configuration for the hazard service.
type ServiceConfig struct {
	// Provider is the hazard data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache the snapshot (default: 2 minutes).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale data on provider errors
	// (default: 30 minutes).
	StaleIfErrorTTL time.Duration
}

// Service provides hazard sample data with snapshot caching. Computations
// that read a snapshot keep reading the same one for their full duration; a
// refresh only affects subsequent reads.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration

	mu          sync.RWMutex
	snapshot    *Snapshot
	cacheExpiry time.Time
}

// NewService creates a new hazard service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 2 * time.Minute
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 30 * time.Minute
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
	}
}

// GetSnapshot returns the current hazard snapshot, using the cached version
// if it has not expired.
func (s *Service) GetSnapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	if s.snapshot != nil && time.Now().Before(s.cacheExpiry) {
		snapshot := s.snapshot
		s.mu.RUnlock()
		return snapshot, nil
	}
	s.mu.RUnlock()

	return s.Refresh(ctx)
}

// Refresh fetches a fresh snapshot from the provider, replacing the cached
// one wholesale. On provider failure it serves the stale snapshot if one is
// available within the stale-if-error window.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring the write lock.
	if s.snapshot != nil && time.Now().Before(s.cacheExpiry) {
		return s.snapshot, nil
	}

	snapshot, err := s.provider.FetchSnapshot(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch hazard snapshot")

		if s.snapshot != nil && time.Now().Before(s.snapshot.FetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", s.snapshot.FetchedAt).
				Msg("serving stale hazard snapshot due to provider error")
			return s.snapshot, nil
		}
		return nil, err
	}

	s.snapshot = snapshot
	s.cacheExpiry = time.Now().Add(s.cacheTTL)

	s.logger.Debug().
		Int("sample_count", len(snapshot.Samples)).
		Str("provider", snapshot.Provider).
		Msg("hazard snapshot refreshed")

	return snapshot, nil
}

// Invalidate drops the cached snapshot so the next read refetches. Used by
// the worker when a push notification signals new data upstream.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheExpiry = time.Time{}
}

// SnapshotAge returns how old the cached snapshot is, or false if none.
func (s *Service) SnapshotAge() (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return 0, false
	}
	return time.Since(s.snapshot.FetchedAt), true
}
