package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/citysense/citysense/internal/api/models"
	"github.com/citysense/citysense/internal/api/response"
	"github.com/citysense/citysense/internal/corridor"
	"github.com/citysense/citysense/internal/hazard"
	"github.com/citysense/citysense/internal/overlay"
)

// HazardHandler serves the hazard snapshot and renderable overlay layers.
type HazardHandler struct {
	hazards   *hazard.Service
	corridors *corridor.Synthesizer
	overlays  *overlay.Registry
}

// NewHazardHandler creates a new HazardHandler.
func NewHazardHandler(hazards *hazard.Service, corridors *corridor.Synthesizer, overlays *overlay.Registry) *HazardHandler {
	return &HazardHandler{
		hazards:   hazards,
		corridors: corridors,
		overlays:  overlays,
	}
}

// ListSamples handles GET /v1/hazards/samples - the current snapshot.
func (h *HazardHandler) ListSamples(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.hazards.GetSnapshot(r.Context())
	if err != nil {
		response.ServiceUnavailable(w, r, "hazard data is currently unavailable")
		return
	}

	samples := make([]models.HazardSample, 0, len(snapshot.Samples))
	for i := range snapshot.Samples {
		s := &snapshot.Samples[i]
		samples = append(samples, models.HazardSample{
			ID:                s.ID,
			Point:             models.Point{Lat: s.Coordinates.Lat, Lon: s.Coordinates.Lon},
			AirQuality:        s.AirQuality,
			PotholeDensity:    s.PotholeDensity,
			HygieneLevel:      s.HygieneLevel,
			WaterLoggingLevel: s.WaterLoggingLevel,
			ObservedAt:        models.Timestamp(s.ObservedAt),
		})
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	response.JSON(w, r, http.StatusOK, models.HazardSamplesResponse{
		Provider:  snapshot.Provider,
		FetchedAt: models.Timestamp(snapshot.FetchedAt),
		Samples:   samples,
	})
}

// GetLayer handles GET /v1/hazards/layers/{kind} - build and activate the
// overlay layer for a hazard kind. The air kind renders as a heatmap, the
// rest as corridor networks.
func (h *HazardHandler) GetLayer(w http.ResponseWriter, r *http.Request) {
	kind, err := hazard.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		response.BadRequest(w, r, "unknown hazard kind", []models.FieldError{
			{Field: "kind", Message: "must be one of AIR, POTHOLE, HYGIENE, FLOODING"},
		})
		return
	}

	snapshot, err := h.hazards.GetSnapshot(r.Context())
	if err != nil {
		response.ServiceUnavailable(w, r, "hazard data is currently unavailable")
		return
	}

	var layer overlay.Layer
	if kind == hazard.KindAir {
		layer = overlay.NewHeatmapLayer(snapshot.Samples)
	} else {
		segments, err := h.corridors.Synthesize(r.Context(), snapshot.Samples, kind)
		if err != nil {
			response.ServiceUnavailable(w, r, "corridor synthesis failed")
			return
		}
		layer, err = overlay.NewCorridorLayer(kind, segments)
		if err != nil {
			response.InternalError(w, r, "failed to build overlay layer")
			return
		}
	}

	if err := h.overlays.Set(layer); err != nil {
		if errors.Is(err, overlay.ErrRegistryLocked) {
			response.Conflict(w, r, "layer toggles are refused while navigation is active")
			return
		}
		response.InternalError(w, r, "failed to activate overlay layer")
		return
	}

	response.JSON(w, r, http.StatusOK, toHazardLayer(layer))
}

// toHazardLayer maps an overlay layer to its API representation.
func toHazardLayer(layer overlay.Layer) models.HazardLayer {
	out := models.HazardLayer{
		ID:         layer.ID,
		Kind:       string(layer.Kind),
		Collection: layer.Collection,
	}

	if layer.Line != nil {
		line := &models.LineStyle{
			ColorStops: make([]models.ColorStop, 0, len(layer.Line.ColorStops)),
			WidthStops: make([]models.WidthStop, 0, len(layer.Line.WidthStops)),
		}
		for _, cs := range layer.Line.ColorStops {
			line.ColorStops = append(line.ColorStops, models.ColorStop{Intensity: cs.Intensity, Color: cs.Color})
		}
		for _, ws := range layer.Line.WidthStops {
			line.WidthStops = append(line.WidthStops, models.WidthStop{Intensity: ws.Intensity, Width: ws.Width})
		}
		out.Line = line
	}

	if layer.Heatmap != nil {
		hm := &models.HeatmapStyle{
			WeightStops: layer.Heatmap.WeightStops,
			ColorStops:  make([]models.ColorStop, 0, len(layer.Heatmap.ColorStops)),
			MaxZoom:     layer.Heatmap.MaxZoom,
		}
		for _, cs := range layer.Heatmap.ColorStops {
			hm.ColorStops = append(hm.ColorStops, models.ColorStop{Intensity: cs.Intensity, Color: cs.Color})
		}
		out.Heatmap = hm
	}

	return out
}
