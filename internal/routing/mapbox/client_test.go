package mapbox

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/citysense/citysense/internal/geo"
	"github.com/citysense/citysense/internal/routing"
)

func TestClient_GetDirections_Success(t *testing.T) {
	// Load test fixture
	respBody, err := os.ReadFile("testdata/directions_response.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	// Create test server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if !strings.HasPrefix(r.URL.Path, "/directions/v5/mapbox/driving/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("access_token") != "mock123" {
			t.Errorf("expected access_token 'mock123', got '%s'", q.Get("access_token"))
		}
		if q.Get("steps") != "true" {
			t.Errorf("expected steps=true, got '%s'", q.Get("steps"))
		}
		if q.Get("geometries") != "geojson" {
			t.Errorf("expected geometries=geojson, got '%s'", q.Get("geometries"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(respBody)
	}))
	defer server.Close()

	// Create client
	client := NewClient(ClientConfig{
		AccessToken: "mock123",
		BaseURL:     server.URL,
		HTTPClient:  &mockHTTPClient{client: server.Client()},
		Logger:      zerolog.Nop(),
	})

	// Make request
	resp, err := client.GetDirections(context.Background(), routing.DirectionsRequest{
		Origin:      geo.Coordinate{Lat: 28.3601, Lon: 77.3101},
		Destination: geo.Coordinate{Lat: 28.3689, Lon: 77.3251},
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Verify response
	if resp.Provider != ProviderName {
		t.Errorf("expected provider %s, got %s", ProviderName, resp.Provider)
	}
	if len(resp.Routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(resp.Routes))
	}

	// Verify first route
	route := resp.Routes[0]
	if route.DistanceMeters != 1232 {
		t.Errorf("expected distance 1232, got %d", route.DistanceMeters)
	}
	if route.DurationSeconds != 246 {
		t.Errorf("expected duration 246, got %d", route.DurationSeconds)
	}
	if len(route.Geometry) != 4 {
		t.Fatalf("expected 4 geometry vertices, got %d", len(route.Geometry))
	}
	if route.Geometry[0].Lon != 77.3101 || route.Geometry[0].Lat != 28.3601 {
		t.Errorf("unexpected first vertex %+v", route.Geometry[0])
	}
	if len(route.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(route.Steps))
	}
	step := route.Steps[1]
	if step.Text != "Turn left onto Sector 21 Road." {
		t.Errorf("unexpected step text %q", step.Text)
	}
	if step.Maneuver != "turn" || step.Modifier != "left" {
		t.Errorf("unexpected maneuver %q/%q", step.Maneuver, step.Modifier)
	}
	if step.Location.Lon != 77.3145 || step.Location.Lat != 28.3622 {
		t.Errorf("unexpected maneuver location %+v", step.Location)
	}
}

func TestClient_GetPath_Success(t *testing.T) {
	respBody, err := os.ReadFile("testdata/directions_response.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("alternatives") != "false" {
			t.Errorf("expected alternatives=false, got '%s'", q.Get("alternatives"))
		}
		if q.Get("overview") != "simplified" {
			t.Errorf("expected overview=simplified, got '%s'", q.Get("overview"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(respBody)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		AccessToken: "mock123",
		BaseURL:     server.URL,
		HTTPClient:  &mockHTTPClient{client: server.Client()},
		Logger:      zerolog.Nop(),
	})

	path, err := client.GetPath(context.Background(),
		geo.Coordinate{Lat: 28.3601, Lon: 77.3101},
		geo.Coordinate{Lat: 28.3689, Lon: 77.3251})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path.Geometry) != 4 {
		t.Fatalf("expected 4 geometry vertices, got %d", len(path.Geometry))
	}
}

func TestClient_GetDirections_NoRouteBody(t *testing.T) {
	// Mapbox reports routing failures with HTTP 200 and a non-Ok code.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"code":"NoRoute","message":"No route found","routes":[]}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		AccessToken: "mock123",
		BaseURL:     server.URL,
		HTTPClient:  &mockHTTPClient{client: server.Client()},
		Logger:      zerolog.Nop(),
	})

	_, err := client.GetDirections(context.Background(), routing.DirectionsRequest{
		Origin:      geo.Coordinate{Lat: 28.3601, Lon: 77.3101},
		Destination: geo.Coordinate{Lat: 28.3689, Lon: 77.3251},
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var routingErr *routing.Error
	if !errors.As(err, &routingErr) {
		t.Fatalf("expected routing.Error, got %T", err)
	}
	if !errors.Is(routingErr.Err, routing.ErrNoRouteFound) {
		t.Errorf("expected ErrNoRouteFound, got %v", routingErr.Err)
	}
}

func TestClient_GetDirections_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"Too Many Requests"}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		AccessToken: "mock123",
		BaseURL:     server.URL,
		HTTPClient:  &mockHTTPClient{client: server.Client()},
		Logger:      zerolog.Nop(),
	})

	_, err := client.GetDirections(context.Background(), routing.DirectionsRequest{
		Origin:      geo.Coordinate{Lat: 28.3601, Lon: 77.3101},
		Destination: geo.Coordinate{Lat: 28.3689, Lon: 77.3251},
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var routingErr *routing.Error
	if !errors.As(err, &routingErr) {
		t.Fatalf("expected routing.Error, got %T", err)
	}
	if !errors.Is(routingErr.Err, routing.ErrRateLimitExceeded) {
		t.Errorf("expected ErrRateLimitExceeded, got %v", routingErr.Err)
	}
}

func TestClient_GetDirections_InvalidCoordinates(t *testing.T) {
	tests := []struct {
		name        string
		origin      geo.Coordinate
		destination geo.Coordinate
	}{
		{
			name:        "latitude out of range",
			origin:      geo.Coordinate{Lat: 91.0, Lon: 77.3},
			destination: geo.Coordinate{Lat: 28.3, Lon: 77.3},
		},
		{
			name:        "negative latitude out of range",
			origin:      geo.Coordinate{Lat: -91.0, Lon: 77.3},
			destination: geo.Coordinate{Lat: 28.3, Lon: 77.3},
		},
		{
			name:        "longitude out of range",
			origin:      geo.Coordinate{Lat: 28.3, Lon: 77.3},
			destination: geo.Coordinate{Lat: 28.3, Lon: 181.0},
		},
		{
			name:        "negative longitude out of range",
			origin:      geo.Coordinate{Lat: 28.3, Lon: 77.3},
			destination: geo.Coordinate{Lat: 28.3, Lon: -181.0},
		},
	}

	client := NewClient(ClientConfig{
		AccessToken: "mock123",
		Logger:      zerolog.Nop(),
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.GetDirections(context.Background(), routing.DirectionsRequest{
				Origin:      tt.origin,
				Destination: tt.destination,
			})

			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var routingErr *routing.Error
			if !errors.As(err, &routingErr) {
				t.Fatalf("expected routing.Error, got %T", err)
			}
			if !errors.Is(routingErr.Err, routing.ErrInvalidCoordinates) {
				t.Errorf("expected ErrInvalidCoordinates, got %v", routingErr.Err)
			}
		})
	}
}

func TestClient_GetDirections_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"Internal server error"}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		AccessToken: "mock123",
		BaseURL:     server.URL,
		HTTPClient:  &mockHTTPClient{client: server.Client()},
		Logger:      zerolog.Nop(),
	})

	_, err := client.GetDirections(context.Background(), routing.DirectionsRequest{
		Origin:      geo.Coordinate{Lat: 28.3601, Lon: 77.3101},
		Destination: geo.Coordinate{Lat: 28.3689, Lon: 77.3251},
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var routingErr *routing.Error
	if !errors.As(err, &routingErr) {
		t.Fatalf("expected routing.Error, got %T", err)
	}
	if !errors.Is(routingErr.Err, routing.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", routingErr.Err)
	}
}

func TestClient_Name(t *testing.T) {
	client := NewClient(ClientConfig{
		AccessToken: "test",
		Logger:      zerolog.Nop(),
	})

	if client.Name() != ProviderName {
		t.Errorf("expected %s, got %s", ProviderName, client.Name())
	}
}

// mockHTTPClient wraps http.Client to implement HTTPDoer interface.
type mockHTTPClient struct {
	client *http.Client
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.client.Do(req)
}

// mockFailingClient simulates network errors.
type mockFailingClient struct{}

func (m *mockFailingClient) Do(req *http.Request) (*http.Response, error) {
	return nil, errors.New("network error")
}

func TestClient_GetPath_NetworkError(t *testing.T) {
	client := NewClient(ClientConfig{
		AccessToken: "mock123",
		HTTPClient:  &mockFailingClient{},
		Logger:      zerolog.Nop(),
	})

	_, err := client.GetPath(context.Background(),
		geo.Coordinate{Lat: 28.3601, Lon: 77.3101},
		geo.Coordinate{Lat: 28.3689, Lon: 77.3251})

	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var routingErr *routing.Error
	if !errors.As(err, &routingErr) {
		t.Fatalf("expected routing.Error, got %T", err)
	}
	if !errors.Is(routingErr.Err, routing.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", routingErr.Err)
	}
}
