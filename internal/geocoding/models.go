// Package geocoding provides place search and coordinate resolution backed
// by the Mapbox Geocoding API.
package geocoding

import (
	"context"
	"errors"

	"github.com/citysense/citysense/internal/geo"
)

// Sentinel errors for geocoding operations.
var (
	// ErrNoResults indicates no place matched the query.
	ErrNoResults = errors.New("no geocoding results")
	// ErrProviderUnavailable indicates the geocoding provider is down.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrQueryTooShort indicates the query is below the minimum length for suggestions.
	ErrQueryTooShort = errors.New("query too short")
)

// Suggestion is one candidate place for a partial query.
type Suggestion struct {
	ID        string
	PlaceName string
	Center    geo.Coordinate
}

// Provider defines the interface for geocoding providers.
type Provider interface {
	// Suggest returns up to five candidate places for a partial query,
	// biased toward the given proximity point. Queries shorter than three
	// characters return ErrQueryTooShort.
	Suggest(ctx context.Context, query string, proximity *geo.Coordinate) ([]Suggestion, error)

	// Forward resolves a free-text place query to a single coordinate.
	Forward(ctx context.Context, query string, proximity *geo.Coordinate) (*geo.Coordinate, error)

	// Reverse resolves a coordinate to a human-readable place name.
	Reverse(ctx context.Context, coord geo.Coordinate) (string, error)
}
