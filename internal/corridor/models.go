// Package corridor synthesizes a weighted line network connecting nearby
// high-severity hazard samples, for rendering as a map overlay.
package corridor

import (
	"github.com/citysense/citysense/internal/geo"
)

// Segment is one synthesized visual edge between two significant hazard
// samples. Endpoints are stored in sorted identifier order so the pair key
// is order-independent.
type Segment struct {
	EndpointA string
	EndpointB string
	Geometry  []geo.Coordinate
	Intensity float64 // 0-100 severity assigned to the edge
}

// PairKey returns the canonical unordered key for the segment's endpoints.
func (s Segment) PairKey() string {
	return s.EndpointA + "-" + s.EndpointB
}
