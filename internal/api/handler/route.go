package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/citysense/citysense/internal/api/models"
	"github.com/citysense/citysense/internal/api/response"
	"github.com/citysense/citysense/internal/geo"
	"github.com/citysense/citysense/internal/overlay"
	"github.com/citysense/citysense/internal/routing"
	"github.com/citysense/citysense/pkg/polyline"
)

// RouteHandler handles route search endpoints.
type RouteHandler struct {
	planner  *routing.Planner
	overlays *overlay.Registry
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(planner *routing.Planner, overlays *overlay.Registry) *RouteHandler {
	return &RouteHandler{planner: planner, overlays: overlays}
}

// SearchRoutes handles POST /v1/routes:search - ranked candidate routes.
func (h *RouteHandler) SearchRoutes(w http.ResponseWriter, r *http.Request) {
	var input models.RouteSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if input.Origin == nil || input.Destination == nil {
		response.BadRequest(w, r, "origin and destination are required", []models.FieldError{
			{Field: "origin", Message: "required"},
			{Field: "destination", Message: "required"},
		})
		return
	}

	// A fresh search must not render over stale corridor visuals. Refused
	// while navigation owns the display, which also refuses the search.
	if h.overlays != nil {
		if err := h.overlays.Clear(); err != nil {
			response.Conflict(w, r, "route search is refused while navigation is active")
			return
		}
	}

	routes, err := h.planner.SearchRoutes(r.Context(),
		geo.Coordinate{Lon: input.Origin.Lon, Lat: input.Origin.Lat},
		geo.Coordinate{Lon: input.Destination.Lon, Lat: input.Destination.Lat},
	)
	if err != nil {
		writeRoutingError(w, r, err)
		return
	}

	options := make([]models.RouteOption, 0, len(routes))
	for i := range routes {
		options = append(options, toRouteOption(routes[i]))
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	response.JSON(w, r, http.StatusOK, models.RouteSearchResponse{
		GeneratedAt: models.Timestamp(time.Now()),
		Routes:      options,
	})
}

// writeRoutingError maps routing sentinel errors to problem responses.
func writeRoutingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, routing.ErrInvalidCoordinates):
		response.BadRequest(w, r, "coordinates are out of range", nil)
	case errors.Is(err, routing.ErrNoRouteFound):
		response.NotFound(w, r, "no route found between the given points")
	case errors.Is(err, routing.ErrRateLimitExceeded):
		response.TooManyRequests(w, r, "routing provider quota exceeded")
	default:
		response.ServiceUnavailable(w, r, "routing provider is currently unavailable")
	}
}

// toRouteOption maps a ranked route to its API representation.
func toRouteOption(rt routing.Route) models.RouteOption {
	coords := make([]polyline.Coordinate, 0, len(rt.Geometry))
	for _, v := range rt.Geometry {
		coords = append(coords, polyline.Coordinate{Lat: v.Lat, Lon: v.Lon})
	}

	instructions := make([]models.Instruction, 0, len(rt.Steps))
	for _, step := range rt.Steps {
		instructions = append(instructions, models.Instruction{
			Text:           step.Text,
			DistanceMeters: step.DistanceMeters,
			Maneuver:       step.Maneuver,
			Modifier:       step.Modifier,
			Location:       models.Point{Lat: step.Location.Lat, Lon: step.Location.Lon},
		})
	}

	return models.RouteOption{
		ID:               rt.ID,
		DistanceMeters:   rt.DistanceMeters,
		DurationSeconds:  rt.DurationSeconds,
		PotholeRisk:      rt.PotholeRisk,
		GarbageRisk:      rt.GarbageRisk,
		FloodRisk:        rt.FloodRisk,
		Recommended:      rt.IsRecommended,
		RecommendReason:  rt.RecommendReason,
		GeometryPolyline: polyline.Encode(coords),
		Instructions:     instructions,
	}
}
