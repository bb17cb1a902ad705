// Package routing provides candidate route computation and hazard-aware ranking.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/citysense/citysense/internal/geo"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the routing provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates no valid route exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Provider defines the interface for routing providers.
type Provider interface {
	// GetDirections retrieves candidate routes between two points, with
	// turn-by-turn steps. Returns alternatives when available.
	GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error)

	// GetPath retrieves a single simplified connecting path between two
	// points, without steps. "No path" is reported as ErrNoRouteFound,
	// never as a nil path with nil error.
	GetPath(ctx context.Context, from, to geo.Coordinate) (*Path, error)

	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// DirectionsRequest is the request for computing candidate routes.
type DirectionsRequest struct {
	Origin          geo.Coordinate
	Destination     geo.Coordinate
	MaxAlternatives int // Maximum number of alternative routes (default: 2)
}

// DirectionsResponse is the response containing route alternatives.
type DirectionsResponse struct {
	Routes    []Route
	Provider  string
	FetchedAt time.Time
}

// Route is one candidate path between two endpoints. Risk fields are zero
// until the planner scores the route against the current hazard snapshot.
type Route struct {
	ID              string
	Geometry        []geo.Coordinate // ordered vertices, at least 2
	DistanceMeters  int
	DurationSeconds int
	Steps           []Instruction

	// Derived fields, set by the planner and ranker.
	PotholeRisk     int
	GarbageRisk     int
	FloodRisk       int
	IsRecommended   bool
	RecommendReason string
}

// Path is a simplified connecting geometry without steps, used for corridor
// synthesis.
type Path struct {
	Geometry []geo.Coordinate
}

// Instruction is one turn-by-turn maneuver step.
type Instruction struct {
	Text           string
	DistanceMeters float64        // length of the upcoming leg
	Maneuver       string         // e.g. "turn", "depart", "arrive"
	Modifier       string         // e.g. "left", "right", "straight"
	Location       geo.Coordinate // where the maneuver takes place
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}

// ValidateCoordinate checks that a coordinate is within valid WGS84 ranges.
func ValidateCoordinate(c geo.Coordinate) error {
	if c.Lat < -90 || c.Lat > 90 {
		return ErrInvalidCoordinates
	}
	if c.Lon < -180 || c.Lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
