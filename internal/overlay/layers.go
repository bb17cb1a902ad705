package overlay

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/citysense/citysense/internal/corridor"
	"github.com/citysense/citysense/internal/hazard"
)

const (
	// intensityRampMin is where the corridor opacity and width ramps
	// start, matching the significance threshold of corridor synthesis.
	intensityRampMin = float64(corridor.SignificanceThreshold)

	// intensityRampMax is the maximum possible intensity value.
	intensityRampMax = 100
)

// Layer is one renderable overlay keyed by its ID. Exactly one of Line or
// Heatmap is set, depending on the layer type.
type Layer struct {
	ID         string
	Kind       hazard.Kind
	Collection FeatureCollection
	Line       *LineStyle
	Heatmap    *HeatmapStyle
}

// LineStyle describes intensity-driven line rendering.
type LineStyle struct {
	// ColorStops interpolate line color over feature intensity.
	ColorStops []ColorStop
	// WidthStops interpolate line width over feature intensity.
	WidthStops []WidthStop
}

// ColorStop is one point on a color interpolation ramp.
type ColorStop struct {
	Intensity float64
	Color     string
}

// WidthStop is one point on a width interpolation ramp.
type WidthStop struct {
	Intensity float64
	Width     float64
}

// HeatmapStyle describes density-based point rendering.
type HeatmapStyle struct {
	// WeightStops interpolate per-point weight over feature intensity.
	WeightStops [][2]float64
	// ColorStops interpolate heatmap color over rendered density.
	ColorStops []ColorStop
	// MaxZoom is the zoom level above which the heatmap is hidden.
	MaxZoom int
}

// CorridorLayerID returns the registry key for a kind's corridor layer.
func CorridorLayerID(kind hazard.Kind) string {
	return strings.ToLower(string(kind)) + "-corridor"
}

// HeatmapLayerID is the registry key for the air quality heatmap.
const HeatmapLayerID = "air-quality-heatmap"

// NewCorridorLayer builds a line layer from synthesized corridor segments.
// Each feature carries its segment's intensity; the style maps intensity to
// opacity between the significance threshold and 100.
func NewCorridorLayer(kind hazard.Kind, segments []corridor.Segment) (Layer, error) {
	info, err := hazard.Info(kind)
	if err != nil {
		return Layer{}, err
	}

	features := make([]Feature, 0, len(segments))
	for _, seg := range segments {
		features = append(features, Feature{
			Type: "Feature",
			Properties: map[string]interface{}{
				"intensity": seg.Intensity,
				"endpoints": []string{seg.EndpointA, seg.EndpointB},
			},
			Geometry: LineGeometry(seg.Geometry),
		})
	}

	return Layer{
		ID:         CorridorLayerID(kind),
		Kind:       kind,
		Collection: NewFeatureCollection(features),
		Line: &LineStyle{
			ColorStops: opacityRamp(info.BaseColor),
			WidthStops: []WidthStop{
				{Intensity: intensityRampMin, Width: 3},
				{Intensity: intensityRampMax, Width: 6},
			},
		},
	}, nil
}

// NewHeatmapLayer builds the air quality heatmap from raw sample values.
// Samples without an air quality reading are skipped.
func NewHeatmapLayer(samples []hazard.Sample) Layer {
	features := make([]Feature, 0, len(samples))
	for i := range samples {
		v, ok := samples[i].Value(hazard.KindAir)
		if !ok {
			continue
		}
		features = append(features, Feature{
			Type:       "Feature",
			Properties: map[string]interface{}{"intensity": v},
			Geometry:   PointGeometry(samples[i].Coordinates),
		})
	}

	return Layer{
		ID:         HeatmapLayerID,
		Kind:       hazard.KindAir,
		Collection: NewFeatureCollection(features),
		Heatmap: &HeatmapStyle{
			// AQI-style weighting, saturating at 300.
			WeightStops: [][2]float64{
				{0, 0}, {50, 0.2}, {100, 0.4}, {150, 0.6}, {200, 0.8}, {300, 1.0},
			},
			ColorStops: []ColorStop{
				{Intensity: 0, Color: "rgba(0,0,0,0)"},
				{Intensity: 0.1, Color: "rgba(0,255,0,0.25)"},
				{Intensity: 0.3, Color: "rgba(255,255,0,0.5)"},
				{Intensity: 0.5, Color: "rgba(255,126,0,0.7)"},
				{Intensity: 0.7, Color: "rgba(255,0,0,0.8)"},
				{Intensity: 0.9, Color: "rgba(153,0,76,1)"},
			},
			MaxZoom: 16,
		},
	}
}

var rgbaPattern = regexp.MustCompile(`rgba?\((\d+),\s*(\d+),\s*(\d+)(?:,\s*[\d.]+)?\)`)

// opacityRamp derives low/medium/high opacity variants of a base color.
// Low intensity renders at 40% opacity, high at 90%.
func opacityRamp(baseColor string) []ColorStop {
	m := rgbaPattern.FindStringSubmatch(baseColor)
	if m == nil {
		return []ColorStop{{Intensity: intensityRampMin, Color: baseColor}}
	}
	r, g, b := m[1], m[2], m[3]

	return []ColorStop{
		{Intensity: intensityRampMin, Color: fmt.Sprintf("rgba(%s,%s,%s,0.4)", r, g, b)},
		{Intensity: (intensityRampMin + intensityRampMax) / 1.5, Color: fmt.Sprintf("rgba(%s,%s,%s,0.7)", r, g, b)},
		{Intensity: intensityRampMax, Color: fmt.Sprintf("rgba(%s,%s,%s,0.9)", r, g, b)},
	}
}
