package routing

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/citysense/citysense/internal/geo"
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider is the routing data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache directions (default: 5 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees
	// (default: 0.001 ~ 110m). Endpoints within the same grid cell share
	// cached directions.
	CacheGridSize float64

	// CleanupInterval is how often expired entries are purged (default: 5 minutes).
	CleanupInterval time.Duration
}

// Service provides routing data with grid-quantized caching. Both the
// candidate-route search and the corridor path fan-out go through it, so
// repeated synthesis passes over the same hazard pairs stay cheap.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	cleanupInterval time.Duration

	mu          sync.RWMutex
	directions  map[string]*cachedEntry[*DirectionsResponse]
	paths       map[string]*cachedEntry[*Path]
	lastCleanup time.Time
}

type cachedEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.001
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 5 * time.Minute
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		cleanupInterval: cleanupInterval,
		directions:      make(map[string]*cachedEntry[*DirectionsResponse]),
		paths:           make(map[string]*cachedEntry[*Path]),
	}
}

// GetDirections returns candidate routes between two points, cached.
func (s *Service) GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error) {
	if err := ValidateCoordinate(req.Origin); err != nil {
		return nil, &Error{Provider: s.provider.Name(), Code: "INVALID_ORIGIN", Message: "invalid origin coordinates", Err: ErrInvalidCoordinates}
	}
	if err := ValidateCoordinate(req.Destination); err != nil {
		return nil, &Error{Provider: s.provider.Name(), Code: "INVALID_DESTINATION", Message: "invalid destination coordinates", Err: ErrInvalidCoordinates}
	}

	key := s.pairKey("dir", req.Origin, req.Destination)

	s.mu.RLock()
	if cached, ok := s.directions[key]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		return cached.value, nil
	}
	s.mu.RUnlock()

	resp, err := s.provider.GetDirections(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("origin_lat", req.Origin.Lat).
			Float64("origin_lon", req.Origin.Lon).
			Float64("dest_lat", req.Destination.Lat).
			Float64("dest_lon", req.Destination.Lon).
			Msg("failed to fetch directions")
		return nil, err
	}

	s.mu.Lock()
	s.directions[key] = &cachedEntry[*DirectionsResponse]{value: resp, expiresAt: time.Now().Add(s.cacheTTL)}
	s.cleanupLocked()
	s.mu.Unlock()

	return resp, nil
}

// GetPath returns a simplified connecting path between two points, cached.
func (s *Service) GetPath(ctx context.Context, from, to geo.Coordinate) (*Path, error) {
	if err := ValidateCoordinate(from); err != nil {
		return nil, &Error{Provider: s.provider.Name(), Code: "INVALID_ORIGIN", Message: "invalid origin coordinates", Err: ErrInvalidCoordinates}
	}
	if err := ValidateCoordinate(to); err != nil {
		return nil, &Error{Provider: s.provider.Name(), Code: "INVALID_DESTINATION", Message: "invalid destination coordinates", Err: ErrInvalidCoordinates}
	}

	key := s.pairKey("path", from, to)

	s.mu.RLock()
	if cached, ok := s.paths[key]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		return cached.value, nil
	}
	s.mu.RUnlock()

	path, err := s.provider.GetPath(ctx, from, to)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.paths[key] = &cachedEntry[*Path]{value: path, expiresAt: time.Now().Add(s.cacheTTL)}
	s.cleanupLocked()
	s.mu.Unlock()

	return path, nil
}

// Name returns the name of the underlying provider.
func (s *Service) Name() string {
	return s.provider.Name()
}

// InvalidateCache clears all cached routing data.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directions = make(map[string]*cachedEntry[*DirectionsResponse])
	s.paths = make(map[string]*cachedEntry[*Path])
}

// pairKey generates a grid-quantized cache key for an endpoint pair.
func (s *Service) pairKey(prefix string, a, b geo.Coordinate) string {
	q := func(v float64) float64 {
		return math.Floor(v/s.cacheGridSize) * s.cacheGridSize
	}
	return fmt.Sprintf("%s:%.3f,%.3f:%.3f,%.3f", prefix, q(a.Lat), q(a.Lon), q(b.Lat), q(b.Lon))
}

// cleanupLocked removes expired entries. Caller holds the write lock.
func (s *Service) cleanupLocked() {
	now := time.Now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}
	s.lastCleanup = now

	expired := 0
	for key, cached := range s.directions {
		if now.After(cached.expiresAt) {
			delete(s.directions, key)
			expired++
		}
	}
	for key, cached := range s.paths {
		if now.After(cached.expiresAt) {
			delete(s.paths, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired routing cache entries")
	}
}
