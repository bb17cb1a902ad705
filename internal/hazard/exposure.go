package hazard

import (
	"math"

	"github.com/citysense/citysense/internal/geo"
)

// ProximityThresholdMeters is the maximum distance between a sample and a
// route polyline for the sample to count toward the route's exposure score.
const ProximityThresholdMeters = 50

// ExposureScore computes a 0-100 exposure score for a route polyline against
// a set of hazard samples for one kind.
//
// A sample contributes only when it has a measured value for the kind, its
// risk value (after any inversion) is positive, and it lies within
// ProximityThresholdMeters of some segment of the route. The score is the
// rounded mean of contributing risk values, clamped to [0,100]. No
// qualifying samples yields 0: an unknown route is not a risky route.
//
// Inputs are never mutated, and the result is invariant to sample order.
func ExposureScore(vertices []geo.Coordinate, samples []Sample, kind Kind) int {
	if len(vertices) < 2 || len(samples) == 0 {
		return 0
	}

	var total float64
	var count int

	for i := range samples {
		risk, ok := samples[i].RiskValue(kind)
		if !ok || risk <= 0 {
			continue
		}

		// The scan stops as soon as any segment is within the threshold;
		// we only need "is it close", not the exact minimum.
		d := geo.MinDistanceToPolylineMeters(samples[i].Coordinates, vertices, ProximityThresholdMeters)
		if d > ProximityThresholdMeters {
			continue
		}

		total += risk
		count++
	}

	if count == 0 {
		return 0
	}

	mean := total / float64(count)
	return int(math.Min(100, math.Max(0, math.Round(mean))))
}
