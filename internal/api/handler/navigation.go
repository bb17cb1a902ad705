package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/citysense/citysense/internal/api/models"
	"github.com/citysense/citysense/internal/api/response"
	"github.com/citysense/citysense/internal/geo"
	"github.com/citysense/citysense/internal/navigation"
	"github.com/citysense/citysense/internal/routing"
)

// NavigationHandler handles navigation session endpoints.
type NavigationHandler struct {
	planner  *routing.Planner
	sessions *navigation.Manager
}

// NewNavigationHandler creates a new NavigationHandler.
func NewNavigationHandler(planner *routing.Planner, sessions *navigation.Manager) *NavigationHandler {
	return &NavigationHandler{planner: planner, sessions: sessions}
}

// StartSession handles POST /v1/navigation/sessions - search routes between
// the endpoints and start navigating the recommended one.
func (h *NavigationHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var input models.NavigationStartRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if input.Origin == nil || input.Destination == nil || input.Position == nil {
		response.BadRequest(w, r, "origin, destination and position are required", []models.FieldError{
			{Field: "origin", Message: "required"},
			{Field: "destination", Message: "required"},
			{Field: "position", Message: "required"},
		})
		return
	}

	routes, err := h.planner.SearchRoutes(r.Context(),
		geo.Coordinate{Lon: input.Origin.Lon, Lat: input.Origin.Lat},
		geo.Coordinate{Lon: input.Destination.Lon, Lat: input.Destination.Lat},
	)
	if err != nil {
		writeRoutingError(w, r, err)
		return
	}

	session, err := h.sessions.StartSession(r.Context(), routes[0],
		geo.Coordinate{Lon: input.Position.Lon, Lat: input.Position.Lat},
		input.Muted,
	)
	if err != nil {
		writeNavigationError(w, r, err)
		return
	}

	response.Created(w, r, "/v1/navigation/sessions/"+session.ID(), toNavigationSession(session))
}

// GetSession handles GET /v1/navigation/sessions/{sessionId}.
func (h *NavigationHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.GetSession(chi.URLParam(r, "sessionId"))
	if err != nil {
		response.NotFound(w, r, "navigation session not found")
		return
	}
	response.JSON(w, r, http.StatusOK, toNavigationSession(session))
}

// UpdatePosition handles POST /v1/navigation/sessions/{sessionId}/position -
// apply one live position fix and return the resulting session state.
func (h *NavigationHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.GetSession(chi.URLParam(r, "sessionId"))
	if err != nil {
		response.NotFound(w, r, "navigation session not found")
		return
	}

	var input models.NavigationPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.Position == nil {
		response.BadRequest(w, r, "position is required", []models.FieldError{
			{Field: "position", Message: "required"},
		})
		return
	}

	err = session.Apply(navigation.PositionEvent{
		Position: geo.Coordinate{Lon: input.Position.Lon, Lat: input.Position.Lat},
	})
	if err != nil {
		writeNavigationError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toNavigationSession(session))
}

// SetMuted handles POST /v1/navigation/sessions/{sessionId}/mute.
func (h *NavigationHandler) SetMuted(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.GetSession(chi.URLParam(r, "sessionId"))
	if err != nil {
		response.NotFound(w, r, "navigation session not found")
		return
	}

	var input models.NavigationMuteRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if err := session.SetMuted(input.Muted); err != nil {
		writeNavigationError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toNavigationSession(session))
}

// StopSession handles DELETE /v1/navigation/sessions/{sessionId}.
func (h *NavigationHandler) StopSession(w http.ResponseWriter, r *http.Request) {
	err := h.sessions.StopSession(chi.URLParam(r, "sessionId"), navigation.StopReasonUser)
	if err != nil {
		if errors.Is(err, navigation.ErrSessionNotFound) {
			response.NotFound(w, r, "navigation session not found")
			return
		}
		writeNavigationError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// writeNavigationError maps navigation sentinel errors to problem responses.
func writeNavigationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, navigation.ErrTooFarFromStart):
		response.PreconditionFailed(w, r, "too far from the route start to begin navigation")
	case errors.Is(err, navigation.ErrNoInstructions):
		response.BadRequest(w, r, "route has no navigation instructions", nil)
	case errors.Is(err, navigation.ErrNotActive), errors.Is(err, navigation.ErrSessionStopped):
		response.Conflict(w, r, "navigation session is not active")
	default:
		response.InternalError(w, r, "navigation session error")
	}
}

// toNavigationSession maps a session snapshot to its API representation.
func toNavigationSession(session *navigation.Session) models.NavigationSession {
	state := session.Snapshot()

	out := models.NavigationSession{
		ID:                      session.ID(),
		Status:                  string(state.Status),
		Route:                   toRouteOption(state.Route),
		CurrentIndex:            state.CurrentIndex,
		DistanceRemainingMeters: state.DistanceRemaining,
		Muted:                   state.Muted,
		StopReason:              string(state.StopReason),
	}

	if state.HasPosition {
		out.Position = &models.Point{Lat: state.Position.Lat, Lon: state.Position.Lon}
	}

	if state.CurrentIndex >= 0 && state.CurrentIndex < len(state.Instructions) {
		step := state.Instructions[state.CurrentIndex]
		out.CurrentInstruction = &models.Instruction{
			Text:           step.Text,
			DistanceMeters: step.DistanceMeters,
			Maneuver:       step.Maneuver,
			Modifier:       step.Modifier,
			Location:       models.Point{Lat: step.Location.Lat, Lon: step.Location.Lon},
		}
	}

	return out
}
