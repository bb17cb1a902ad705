package models

import "github.com/citysense/citysense/internal/overlay"

// HazardSample is one geolocated urban-condition measurement. A null field
// means the dimension was not measured at this point.
type HazardSample struct {
	ID                string    `json:"id"`
	Point             Point     `json:"point"`
	AirQuality        *float64  `json:"airQuality,omitempty"`
	PotholeDensity    *float64  `json:"potholeDensity,omitempty"`
	HygieneLevel      *float64  `json:"hygieneLevel,omitempty"`
	WaterLoggingLevel *float64  `json:"waterLoggingLevel,omitempty"`
	ObservedAt        Timestamp `json:"observedAt"`
}

// HazardSamplesResponse is the current hazard snapshot.
type HazardSamplesResponse struct {
	Provider  string         `json:"provider"`
	FetchedAt Timestamp      `json:"fetchedAt"`
	Samples   []HazardSample `json:"samples"`
}

// ColorStop is one point on a color interpolation ramp.
type ColorStop struct {
	Intensity float64 `json:"intensity"`
	Color     string  `json:"color"`
}

// WidthStop is one point on a width interpolation ramp.
type WidthStop struct {
	Intensity float64 `json:"intensity"`
	Width     float64 `json:"width"`
}

// LineStyle describes intensity-driven line rendering for a corridor layer.
type LineStyle struct {
	ColorStops []ColorStop `json:"colorStops"`
	WidthStops []WidthStop `json:"widthStops"`
}

// HeatmapStyle describes density-based point rendering for the air heatmap.
type HeatmapStyle struct {
	WeightStops [][2]float64 `json:"weightStops"`
	ColorStops  []ColorStop  `json:"colorStops"`
	MaxZoom     int          `json:"maxZoom"`
}

// HazardLayer is a renderable overlay: a GeoJSON feature collection plus its
// style parameters. Exactly one of line or heatmap is set.
type HazardLayer struct {
	ID         string                    `json:"id"`
	Kind       string                    `json:"kind"`
	Collection overlay.FeatureCollection `json:"collection"`
	Line       *LineStyle                `json:"line,omitempty"`
	Heatmap    *HeatmapStyle             `json:"heatmap,omitempty"`
}
