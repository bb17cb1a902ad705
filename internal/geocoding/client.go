package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/citysense/citysense/internal/geo"
	"github.com/citysense/citysense/internal/provider/resilience"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "mapbox-geocoding"

	// DefaultBaseURL is the Mapbox API base URL.
	DefaultBaseURL = "https://api.mapbox.com"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// MinQueryLength is the minimum query length for suggestions.
	MinQueryLength = 3

	// suggestionLimit caps the number of returned suggestions.
	suggestionLimit = 5
)

// DefaultProximity biases queries toward the service area when the caller
// provides no proximity point.
var DefaultProximity = geo.Coordinate{Lon: 77.315672, Lat: 28.367188}

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the geocoding client.
type ClientConfig struct {
	// AccessToken is the Mapbox access token (required).
	AccessToken string

	// BaseURL is the API base URL (optional, defaults to the Mapbox API).
	BaseURL string

	// CountryFilter restricts results to a country code (optional,
	// defaults to "in").
	CountryFilter string

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

// Client is a Mapbox Geocoding API client.
type Client struct {
	accessToken string
	baseURL     string
	country     string
	httpClient  HTTPDoer
	logger      zerolog.Logger
}

// NewClient creates a new geocoding client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	country := cfg.CountryFilter
	if country == "" {
		country = "in"
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
		country:     country,
		httpClient:  httpClient,
		logger:      cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Suggest returns up to five candidate places for a partial query.
func (c *Client) Suggest(ctx context.Context, query string, proximity *geo.Coordinate) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinQueryLength {
		return nil, ErrQueryTooShort
	}

	prox := DefaultProximity
	if proximity != nil {
		prox = *proximity
	}

	q := url.Values{}
	q.Set("proximity", fmt.Sprintf("%f,%f", prox.Lon, prox.Lat))
	q.Set("country", c.country)
	q.Set("limit", fmt.Sprintf("%d", suggestionLimit))
	q.Set("types", "poi,address,place,locality")

	resp, err := c.doGeocode(ctx, query, q)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(resp.Features))
	for _, f := range resp.Features {
		if len(f.Center) < 2 {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			ID:        f.ID,
			PlaceName: f.PlaceName,
			Center:    geo.Coordinate{Lon: f.Center[0], Lat: f.Center[1]},
		})
	}

	c.logger.Debug().
		Str("query", query).
		Int("suggestion_count", len(suggestions)).
		Msg("place suggestions resolved")

	return suggestions, nil
}

// Forward resolves a free-text place query to a single coordinate.
func (c *Client) Forward(ctx context.Context, query string, proximity *geo.Coordinate) (*geo.Coordinate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrNoResults
	}

	prox := DefaultProximity
	if proximity != nil {
		prox = *proximity
	}

	q := url.Values{}
	q.Set("proximity", fmt.Sprintf("%f,%f", prox.Lon, prox.Lat))
	q.Set("country", c.country)
	q.Set("limit", "1")

	resp, err := c.doGeocode(ctx, query, q)
	if err != nil {
		return nil, err
	}

	if len(resp.Features) == 0 || len(resp.Features[0].Center) < 2 {
		return nil, ErrNoResults
	}

	f := resp.Features[0]
	return &geo.Coordinate{Lon: f.Center[0], Lat: f.Center[1]}, nil
}

// Reverse resolves a coordinate to a human-readable place name.
func (c *Client) Reverse(ctx context.Context, coord geo.Coordinate) (string, error) {
	q := url.Values{}
	q.Set("limit", "1")
	q.Set("types", "address,poi,place,locality")

	// Reverse lookups use "lon,lat" as the query term.
	term := fmt.Sprintf("%f,%f", coord.Lon, coord.Lat)
	resp, err := c.doGeocode(ctx, term, q)
	if err != nil {
		return "", err
	}

	if len(resp.Features) == 0 {
		return "", ErrNoResults
	}
	return resp.Features[0].PlaceName, nil
}

// doGeocode executes a geocoding request for the given query term.
func (c *Client) doGeocode(ctx context.Context, term string, q url.Values) (*geocodeResponse, error) {
	q.Set("access_token", c.accessToken)

	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		c.baseURL, url.PathEscape(term), q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimitExceeded
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNoResults
	default:
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var gcResp geocodeResponse
	if err := json.Unmarshal(body, &gcResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &gcResp, nil
}

// geocodeResponse is the Mapbox Geocoding API feature collection.
type geocodeResponse struct {
	Features []geocodeFeature `json:"features"`
}

type geocodeFeature struct {
	ID        string    `json:"id"`
	PlaceName string    `json:"place_name"`
	Center    []float64 `json:"center"` // [lon, lat]
}
