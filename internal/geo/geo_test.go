package geo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citysense/citysense/internal/geo"
)

func TestDistanceMeters_KnownSeparation(t *testing.T) {
	// One degree of latitude is 111320m by definition of the scale constant.
	a := geo.Coordinate{Lon: 77.3, Lat: 28.0}
	b := geo.Coordinate{Lon: 77.3, Lat: 29.0}

	assert.InDelta(t, 111320, geo.DistanceMeters(a, b), 0.001)
}

func TestDistanceMeters_LongitudeCorrection(t *testing.T) {
	// A degree of longitude shrinks with cos(latitude). At 60N it should be
	// roughly half the length of a degree of latitude.
	a := geo.Coordinate{Lon: 10.0, Lat: 60.0}
	b := geo.Coordinate{Lon: 11.0, Lat: 60.0}

	d := geo.DistanceMeters(a, b)
	assert.InDelta(t, 111320*math.Cos(60*math.Pi/180), d, 50)
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	a := geo.Coordinate{Lon: 77.315672, Lat: 28.367188}
	b := geo.Coordinate{Lon: 77.317, Lat: 28.368}

	assert.Equal(t, geo.DistanceMeters(a, b), geo.DistanceMeters(b, a))
}

func TestPointToSegmentDistanceMeters_DegenerateSegment(t *testing.T) {
	// A zero-length segment must reduce to plain point distance for any p.
	points := []geo.Coordinate{
		{Lon: 77.31, Lat: 28.36},
		{Lon: 77.32, Lat: 28.37},
		{Lon: -0.1276, Lat: 51.5072},
	}
	a := geo.Coordinate{Lon: 77.315, Lat: 28.365}

	for _, p := range points {
		assert.Equal(t,
			geo.DistanceMeters(p, a),
			geo.PointToSegmentDistanceMeters(p, a, a),
		)
	}
}

func TestPointToSegmentDistanceMeters_ProjectionInside(t *testing.T) {
	// p sits directly above the midpoint of a horizontal segment, offset by
	// 0.001 degrees of latitude (~111.3m).
	a := geo.Coordinate{Lon: 77.30, Lat: 28.36}
	b := geo.Coordinate{Lon: 77.32, Lat: 28.36}
	p := geo.Coordinate{Lon: 77.31, Lat: 28.361}

	d := geo.PointToSegmentDistanceMeters(p, a, b)
	assert.InDelta(t, 111.32, d, 0.5)
}

func TestPointToSegmentDistanceMeters_ClampsToEndpoints(t *testing.T) {
	a := geo.Coordinate{Lon: 77.30, Lat: 28.36}
	b := geo.Coordinate{Lon: 77.31, Lat: 28.36}

	// Beyond b along the segment direction: distance measures to b itself.
	p := geo.Coordinate{Lon: 77.33, Lat: 28.36}
	assert.InDelta(t, geo.DistanceMeters(p, b), geo.PointToSegmentDistanceMeters(p, a, b), 1e-9)

	// Before a: distance measures to a.
	q := geo.Coordinate{Lon: 77.28, Lat: 28.36}
	assert.InDelta(t, geo.DistanceMeters(q, a), geo.PointToSegmentDistanceMeters(q, a, b), 1e-9)
}

func TestMinDistanceToPolylineMeters(t *testing.T) {
	polyline := []geo.Coordinate{
		{Lon: 77.30, Lat: 28.36},
		{Lon: 77.31, Lat: 28.36},
		{Lon: 77.31, Lat: 28.37},
	}

	t.Run("nearest segment wins", func(t *testing.T) {
		p := geo.Coordinate{Lon: 77.311, Lat: 28.365}
		want := geo.PointToSegmentDistanceMeters(p, polyline[1], polyline[2])
		assert.Equal(t, want, geo.MinDistanceToPolylineMeters(p, polyline, 0))
	})

	t.Run("empty polyline", func(t *testing.T) {
		p := geo.Coordinate{Lon: 77.31, Lat: 28.36}
		assert.True(t, math.IsInf(geo.MinDistanceToPolylineMeters(p, nil, 0), 1))
	})

	t.Run("single vertex", func(t *testing.T) {
		p := geo.Coordinate{Lon: 77.31, Lat: 28.36}
		v := []geo.Coordinate{{Lon: 77.32, Lat: 28.36}}
		assert.Equal(t, geo.DistanceMeters(p, v[0]), geo.MinDistanceToPolylineMeters(p, v, 0))
	})

	t.Run("early exit still within threshold", func(t *testing.T) {
		// Point on the first segment; with a stop threshold the scan may
		// skip later segments but the returned distance must still be <= it.
		p := geo.Coordinate{Lon: 77.305, Lat: 28.36}
		d := geo.MinDistanceToPolylineMeters(p, polyline, 50)
		assert.LessOrEqual(t, d, 50.0)
	})
}
