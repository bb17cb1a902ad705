package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/citysense/citysense/internal/api/models"
	"github.com/citysense/citysense/internal/api/response"
	"github.com/citysense/citysense/internal/geo"
	"github.com/citysense/citysense/internal/geocoding"
)

// GeocodeHandler handles place search and coordinate resolution endpoints.
type GeocodeHandler struct {
	geocoder geocoding.Provider
}

// NewGeocodeHandler creates a new GeocodeHandler.
func NewGeocodeHandler(geocoder geocoding.Provider) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder}
}

// Suggest handles GET /v1/geocode/suggest?q=...&lat=...&lon=...
func (h *GeocodeHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	proximity := proximityParam(r)

	suggestions, err := h.geocoder.Suggest(r.Context(), query, proximity)
	if err != nil {
		if errors.Is(err, geocoding.ErrQueryTooShort) {
			response.BadRequest(w, r, "query must be at least 3 characters", []models.FieldError{
				{Field: "q", Message: "too short"},
			})
			return
		}
		writeGeocodeError(w, r, err)
		return
	}

	out := make([]models.GeocodeSuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		out = append(out, models.GeocodeSuggestion{
			ID:        s.ID,
			PlaceName: s.PlaceName,
			Center:    models.Point{Lat: s.Center.Lat, Lon: s.Center.Lon},
		})
	}

	response.JSON(w, r, http.StatusOK, models.GeocodeSuggestResponse{
		Query:       query,
		Suggestions: out,
	})
}

// Forward handles GET /v1/geocode/forward?q=...
func (h *GeocodeHandler) Forward(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, r, "query is required", []models.FieldError{
			{Field: "q", Message: "required"},
		})
		return
	}

	point, err := h.geocoder.Forward(r.Context(), query, proximityParam(r))
	if err != nil {
		writeGeocodeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.GeocodeForwardResponse{
		Query: query,
		Point: models.Point{Lat: point.Lat, Lon: point.Lon},
	})
}

// Reverse handles GET /v1/geocode/reverse?lat=...&lon=...
func (h *GeocodeHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		response.BadRequest(w, r, "lat and lon are required", []models.FieldError{
			{Field: "lat", Message: "required numeric value"},
			{Field: "lon", Message: "required numeric value"},
		})
		return
	}

	coord := geo.Coordinate{Lon: lon, Lat: lat}
	placeName, err := h.geocoder.Reverse(r.Context(), coord)
	if err != nil {
		writeGeocodeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.GeocodeReverseResponse{
		Point:     models.Point{Lat: lat, Lon: lon},
		PlaceName: placeName,
	})
}

// proximityParam reads an optional lat/lon bias from the query string.
func proximityParam(r *http.Request) *geo.Coordinate {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		return nil
	}
	return &geo.Coordinate{Lon: lon, Lat: lat}
}

// writeGeocodeError maps geocoding sentinel errors to problem responses.
func writeGeocodeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, geocoding.ErrNoResults):
		response.NotFound(w, r, "no place matched the query")
	case errors.Is(err, geocoding.ErrRateLimitExceeded):
		response.TooManyRequests(w, r, "geocoding provider quota exceeded")
	default:
		response.ServiceUnavailable(w, r, "geocoding provider is currently unavailable")
	}
}
