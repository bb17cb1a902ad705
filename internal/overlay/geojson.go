// Package overlay builds renderable map layers from hazard data and owns
// the registry of currently active layers.
package overlay

import "github.com/citysense/citysense/internal/geo"

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one GeoJSON feature with rendering properties.
type Feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   Geometry               `json:"geometry"`
}

// Geometry is a GeoJSON geometry in [lon, lat] coordinate order.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// NewFeatureCollection wraps features in a collection envelope.
func NewFeatureCollection(features []Feature) FeatureCollection {
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}

// PointGeometry builds a GeoJSON point.
func PointGeometry(c geo.Coordinate) Geometry {
	return Geometry{Type: "Point", Coordinates: []float64{c.Lon, c.Lat}}
}

// LineGeometry builds a GeoJSON line string.
func LineGeometry(vertices []geo.Coordinate) Geometry {
	coords := make([][]float64, 0, len(vertices))
	for _, v := range vertices {
		coords = append(coords, []float64{v.Lon, v.Lat})
	}
	return Geometry{Type: "LineString", Coordinates: coords}
}
