// Package geo provides planar distance primitives for city-scale geometry.
//
// All functions operate on WGS84 degree coordinates and use a
// latitude-corrected planar approximation instead of great-circle math.
// The approximation is accurate to well under a percent at city scale
// (tens of kilometres) and is considerably cheaper than haversine inside
// the per-sample, per-segment scoring loops.
package geo

import "math"

// MetersPerDegree is the length of one degree of latitude at the equator.
// After longitude correction it is used as the scale constant for both axes.
const MetersPerDegree = 111320

// Coordinate represents a geographic point.
type Coordinate struct {
	Lon float64
	Lat float64
}

// SquaredPlanarDistance returns the longitude-corrected squared planar
// distance between two points, in square degrees. The longitude delta is
// scaled by the cosine of the mean latitude so that a unit of dx and a unit
// of dy cover the same ground distance.
func SquaredPlanarDistance(a, b Coordinate) float64 {
	dx := a.Lon - b.Lon
	dy := a.Lat - b.Lat
	meanLatRad := (a.Lat + b.Lat) / 2 * math.Pi / 180
	dxCorrected := dx * math.Cos(meanLatRad)
	return dxCorrected*dxCorrected + dy*dy
}

// DistanceMeters returns the planar distance between two points in meters.
func DistanceMeters(a, b Coordinate) float64 {
	return math.Sqrt(SquaredPlanarDistance(a, b)) * MetersPerDegree
}

// PointToSegmentDistanceMeters returns the distance in meters from p to the
// line segment ab. The projection parameter is clamped to [0,1], so points
// beyond either endpoint measure to that endpoint. A degenerate segment
// (a == b) reduces to the point-to-point distance.
func PointToSegmentDistanceMeters(p, a, b Coordinate) float64 {
	l2 := SquaredPlanarDistance(a, b)
	if l2 == 0 {
		return DistanceMeters(p, a)
	}

	t := ((p.Lon-a.Lon)*(b.Lon-a.Lon) + (p.Lat-a.Lat)*(b.Lat-a.Lat)) / l2
	t = math.Max(0, math.Min(1, t))

	projection := Coordinate{
		Lon: a.Lon + t*(b.Lon-a.Lon),
		Lat: a.Lat + t*(b.Lat-a.Lat),
	}
	return DistanceMeters(p, projection)
}

// MinDistanceToPolylineMeters returns the minimum distance in meters from p
// to any segment of the polyline. The scan short-circuits once a segment
// within stopBelow meters is found; pass 0 to always scan every segment.
// A single-vertex polyline measures to that vertex; an empty one returns +Inf.
func MinDistanceToPolylineMeters(p Coordinate, vertices []Coordinate, stopBelow float64) float64 {
	if len(vertices) == 0 {
		return math.Inf(1)
	}
	if len(vertices) == 1 {
		return DistanceMeters(p, vertices[0])
	}

	minDist := math.Inf(1)
	for i := 0; i < len(vertices)-1; i++ {
		d := PointToSegmentDistanceMeters(p, vertices[i], vertices[i+1])
		if d < minDist {
			minDist = d
		}
		if stopBelow > 0 && minDist <= stopBelow {
			break
		}
	}
	return minDist
}
