package routing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/citysense/citysense/internal/geo"
	"github.com/citysense/citysense/internal/hazard"
)

// Directions abstracts the caching routing service for the planner.
type Directions interface {
	GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error)
}

// SnapshotSource supplies the hazard working set for scoring.
type SnapshotSource interface {
	GetSnapshot(ctx context.Context) (*hazard.Snapshot, error)
}

// PlannerConfig holds configuration for the route planner.
type PlannerConfig struct {
	Directions Directions
	Hazards    SnapshotSource
	Logger     zerolog.Logger
}

// Planner runs the full route-search operation: fetch candidates, score
// every candidate against the hazard snapshot, then rank. Ranking only
// happens after all candidates are scored, so a partial ranking is never
// produced.
type Planner struct {
	directions Directions
	hazards    SnapshotSource
	logger     zerolog.Logger
}

// NewPlanner creates a new route planner.
func NewPlanner(cfg PlannerConfig) *Planner {
	return &Planner{
		directions: cfg.Directions,
		hazards:    cfg.Hazards,
		logger:     cfg.Logger,
	}
}

// SearchRoutes finds candidate routes between two points, scores each
// against the current hazard snapshot, and returns them ranked with exactly
// one flagged as recommended.
//
// A hazard-snapshot failure degrades to unscored (zero-risk) candidates
// rather than failing the search; a routing failure is surfaced as-is.
func (p *Planner) SearchRoutes(ctx context.Context, from, to geo.Coordinate) ([]Route, error) {
	resp, err := p.directions.GetDirections(ctx, DirectionsRequest{
		Origin:      from,
		Destination: to,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Routes) == 0 {
		return nil, ErrNoRouteFound
	}

	var samples []hazard.Sample
	snapshot, err := p.hazards.GetSnapshot(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("hazard snapshot unavailable, ranking on duration only")
	} else {
		samples = snapshot.Samples
	}

	routes := make([]Route, len(resp.Routes))
	copy(routes, resp.Routes)
	for i := range routes {
		if routes[i].ID == "" {
			routes[i].ID = "rt_" + uuid.New().String()[:12]
		}
		routes[i].PotholeRisk = hazard.ExposureScore(routes[i].Geometry, samples, hazard.KindPothole)
		routes[i].GarbageRisk = hazard.ExposureScore(routes[i].Geometry, samples, hazard.KindHygiene)
		routes[i].FloodRisk = hazard.ExposureScore(routes[i].Geometry, samples, hazard.KindFlooding)
	}

	ranked := RankRoutes(routes)

	p.logger.Debug().
		Int("route_count", len(ranked)).
		Str("recommended", ranked[0].ID).
		Str("reason", ranked[0].RecommendReason).
		Msg("ranked candidate routes")

	return ranked, nil
}
