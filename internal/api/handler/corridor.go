package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/citysense/citysense/internal/api/models"
	"github.com/citysense/citysense/internal/api/response"
	"github.com/citysense/citysense/internal/corridor"
	"github.com/citysense/citysense/internal/hazard"
	"github.com/citysense/citysense/internal/overlay"
	"github.com/citysense/citysense/pkg/polyline"
)

// CorridorHandler handles corridor synthesis endpoints.
type CorridorHandler struct {
	hazards   *hazard.Service
	corridors *corridor.Synthesizer
	overlays  *overlay.Registry
}

// NewCorridorHandler creates a new CorridorHandler.
func NewCorridorHandler(hazards *hazard.Service, corridors *corridor.Synthesizer, overlays *overlay.Registry) *CorridorHandler {
	return &CorridorHandler{
		hazards:   hazards,
		corridors: corridors,
		overlays:  overlays,
	}
}

// Synthesize handles POST /v1/corridors:synthesize - build the corridor
// network for a hazard kind from the current snapshot.
func (h *CorridorHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	var input models.CorridorSynthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	kind, err := hazard.ParseKind(input.Kind)
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

	segments, err := h.corridors.Synthesize(r.Context(), snapshot.Samples, kind)
	if err != nil {
		response.ServiceUnavailable(w, r, "corridor synthesis failed")
		return
	}

	layer, err := overlay.NewCorridorLayer(kind, segments)
	if err != nil {
		response.InternalError(w, r, "failed to build overlay layer")
		return
	}

	if err := h.overlays.Set(layer); err != nil {
		if errors.Is(err, overlay.ErrRegistryLocked) {
			response.Conflict(w, r, "layer toggles are refused while navigation is active")
			return
		}
		response.InternalError(w, r, "failed to activate overlay layer")
		return
	}

	out := make([]models.CorridorSegment, 0, len(segments))
	for _, seg := range segments {
		coords := make([]polyline.Coordinate, 0, len(seg.Geometry))
		for _, v := range seg.Geometry {
			coords = append(coords, polyline.Coordinate{Lat: v.Lat, Lon: v.Lon})
		}
		out = append(out, models.CorridorSegment{
			Endpoints:        [2]string{seg.EndpointA, seg.EndpointB},
			Intensity:        seg.Intensity,
			GeometryPolyline: polyline.Encode(coords),
		})
	}

	response.JSON(w, r, http.StatusOK, models.CorridorSynthesizeResponse{
		Kind:        string(kind),
		GeneratedAt: models.Timestamp(time.Now()),
		Segments:    out,
		Layer:       toHazardLayer(layer),
	})
}
