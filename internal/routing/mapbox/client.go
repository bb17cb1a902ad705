// Package mapbox provides a client for the Mapbox Directions API.
package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/citysense/citysense/internal/geo"
	"github.com/citysense/citysense/internal/provider/resilience"
	"github.com/citysense/citysense/internal/routing"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "mapbox"

	// DefaultBaseURL is the Mapbox API base URL.
	DefaultBaseURL = "https://api.mapbox.com"

	// DefaultProfile is the routing profile used for all requests.
	DefaultProfile = "driving"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Mapbox client.
type ClientConfig struct {
	// AccessToken is the Mapbox access token (required).
	AccessToken string

	// BaseURL is the API base URL (optional, defaults to the Mapbox API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Mapbox Directions API client.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  HTTPDoer
	logger      zerolog.Logger
}

// NewClient creates a new Mapbox client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		accessToken: cfg.AccessToken,
		baseURL:     baseURL,
		httpClient:  httpClient,
		logger:      cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetDirections retrieves candidate routes between two points with
// turn-by-turn steps.
func (c *Client) GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error) {
	if err := routing.ValidateCoordinate(req.Origin); err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_ORIGIN",
			Message:  "invalid origin coordinates",
			Err:      routing.ErrInvalidCoordinates,
		}
	}
	if err := routing.ValidateCoordinate(req.Destination); err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_DESTINATION",
			Message:  "invalid destination coordinates",
			Err:      routing.ErrInvalidCoordinates,
		}
	}

	q := url.Values{}
	q.Set("alternatives", "true")
	q.Set("steps", "true")
	q.Set("geometries", "geojson")
	q.Set("overview", "full")

	c.logger.Debug().
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lon", req.Origin.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Msg("requesting directions from mapbox")

	var resp directionsResponse
	if err := c.doDirections(ctx, req.Origin, req.Destination, q, &resp); err != nil {
		return nil, err
	}

	result := c.toDirectionsResponse(&resp)

	c.logger.Debug().
		Int("route_count", len(result.Routes)).
		Msg("received directions from mapbox")

	return result, nil
}

// GetPath retrieves a single simplified connecting path between two points.
// No steps are requested; the result carries only the geometry.
func (c *Client) GetPath(ctx context.Context, from, to geo.Coordinate) (*routing.Path, error) {
	if err := routing.ValidateCoordinate(from); err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_ORIGIN",
			Message:  "invalid origin coordinates",
			Err:      routing.ErrInvalidCoordinates,
		}
	}
	if err := routing.ValidateCoordinate(to); err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_DESTINATION",
			Message:  "invalid destination coordinates",
			Err:      routing.ErrInvalidCoordinates,
		}
	}

	q := url.Values{}
	q.Set("alternatives", "false")
	q.Set("steps", "false")
	q.Set("geometries", "geojson")
	q.Set("overview", "simplified")

	var resp directionsResponse
	if err := c.doDirections(ctx, from, to, q, &resp); err != nil {
		return nil, err
	}

	if len(resp.Routes) == 0 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  "no path found between the given points",
			Err:      routing.ErrNoRouteFound,
		}
	}

	return &routing.Path{
		Geometry: toCoordinates(resp.Routes[0].Geometry.Coordinates),
	}, nil
}

// doDirections executes a Directions API request and decodes the response.
func (c *Client) doDirections(ctx context.Context, from, to geo.Coordinate, q url.Values, out *directionsResponse) error {
	q.Set("access_token", c.accessToken)

	// Mapbox uses lon,lat coordinate order in the path.
	endpoint := fmt.Sprintf("%s/directions/v5/mapbox/%s/%f,%f;%f,%f?%s",
		c.baseURL, DefaultProfile,
		from.Lon, from.Lat, to.Lon, to.Lat,
		q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach routing provider",
			Err:      routing.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return c.handleErrorResponse(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	// Mapbox reports routing failures with HTTP 200 and a non-Ok code.
	if out.Code != "Ok" {
		if out.Code == "NoRoute" || out.Code == "NoSegment" {
			return &routing.Error{
				Provider: ProviderName,
				Code:     "NO_ROUTE",
				Message:  "no route found between the given points",
				Err:      routing.ErrNoRouteFound,
			}
		}
		return &routing.Error{
			Provider: ProviderName,
			Code:     out.Code,
			Message:  out.Message,
			Err:      routing.ErrProviderUnavailable,
		}
	}

	return nil
}

// handleErrorResponse maps Mapbox error responses to domain errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var mbErr directionsResponse
	_ = json.Unmarshal(body, &mbErr)

	switch statusCode {
	case http.StatusTooManyRequests:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded, please try again later",
			Err:      routing.ErrRateLimitExceeded,
		}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "API access denied - check access token configuration",
			Err:      routing.ErrProviderUnavailable,
		}
	case http.StatusNotFound:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "NO_ROUTE",
			Message:  "no route found between the given points",
			Err:      routing.ErrNoRouteFound,
		}
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		msg := mbErr.Message
		if msg == "" {
			msg = "invalid directions request"
		}
		return &routing.Error{
			Provider: ProviderName,
			Code:     "BAD_REQUEST",
			Message:  msg,
			Err:      routing.ErrInvalidCoordinates,
		}
	default:
		if statusCode >= 500 {
			return &routing.Error{
				Provider: ProviderName,
				Code:     fmt.Sprintf("SERVER_%d", statusCode),
				Message:  "routing provider is temporarily unavailable",
				Err:      routing.ErrProviderUnavailable,
			}
		}
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  fmt.Sprintf("routing provider returned status %d", statusCode),
			Err:      routing.ErrProviderUnavailable,
		}
	}
}

// toDirectionsResponse converts a Mapbox response to the domain model.
func (c *Client) toDirectionsResponse(resp *directionsResponse) *routing.DirectionsResponse {
	routes := make([]routing.Route, 0, len(resp.Routes))

	for i := range resp.Routes {
		mbRoute := &resp.Routes[i]
		route := routing.Route{
			Geometry:        toCoordinates(mbRoute.Geometry.Coordinates),
			DistanceMeters:  int(mbRoute.Distance),
			DurationSeconds: int(mbRoute.Duration),
		}

		for j := range mbRoute.Legs {
			leg := &mbRoute.Legs[j]
			for k := range leg.Steps {
				step := &leg.Steps[k]
				instr := routing.Instruction{
					Text:           step.Maneuver.Instruction,
					DistanceMeters: step.Distance,
					Maneuver:       step.Maneuver.Type,
					Modifier:       step.Maneuver.Modifier,
				}
				if len(step.Maneuver.Location) >= 2 {
					instr.Location = geo.Coordinate{
						Lon: step.Maneuver.Location[0],
						Lat: step.Maneuver.Location[1],
					}
				}
				route.Steps = append(route.Steps, instr)
			}
		}

		routes = append(routes, route)
	}

	return &routing.DirectionsResponse{
		Routes:    routes,
		Provider:  ProviderName,
		FetchedAt: time.Now(),
	}
}

// toCoordinates converts GeoJSON [lon, lat] pairs to domain coordinates.
func toCoordinates(pairs [][]float64) []geo.Coordinate {
	coords := make([]geo.Coordinate, 0, len(pairs))
	for _, p := range pairs {
		if len(p) < 2 {
			continue
		}
		coords = append(coords, geo.Coordinate{Lon: p[0], Lat: p[1]})
	}
	return coords
}
