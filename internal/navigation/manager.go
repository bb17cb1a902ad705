package navigation

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/citysense/citysense/internal/geo"
	"github.com/citysense/citysense/internal/overlay"
	"github.com/citysense/citysense/internal/routing"
)

// ErrSessionNotFound indicates no session exists under the given ID.
var ErrSessionNotFound = errors.New("navigation session not found")

// Directions fetches maneuver steps for a route's endpoints.
type Directions interface {
	GetDirections(ctx context.Context, req routing.DirectionsRequest) (*routing.DirectionsResponse, error)
}

// ManagerConfig holds configuration for creating a Manager.
type ManagerConfig struct {
	// Directions supplies maneuver steps when the chosen route carries
	// none (required).
	Directions Directions

	// Announcer speaks announcements for all sessions (optional).
	Announcer Announcer

	// Camera follows position updates (optional).
	Camera Camera

	// Overlays is locked while any session is active, so layer toggles
	// cannot disturb navigation display state (optional).
	Overlays *overlay.Registry

	// Logger for manager operations.
	Logger zerolog.Logger
}

// Manager owns all live navigation sessions, keyed by session ID.
type Manager struct {
	directions Directions
	announcer  Announcer
	camera     Camera
	overlays   *overlay.Registry
	logger     zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		directions: cfg.Directions,
		announcer:  cfg.Announcer,
		camera:     cfg.Camera,
		overlays:   cfg.Overlays,
		logger:     cfg.Logger,
		sessions:   make(map[string]*Session),
	}
}

// StartSession begins navigating the given route from the user's position.
// Maneuver steps come from the route itself when present, otherwise they
// are fetched from the routing provider for the route's endpoints.
func (m *Manager) StartSession(ctx context.Context, route routing.Route, position geo.Coordinate, muted bool) (*Session, error) {
	instructions := route.Steps
	if len(instructions) == 0 {
		fetched, err := m.fetchInstructions(ctx, route)
		if err != nil {
			return nil, err
		}
		instructions = fetched
	}

	id := "ns_" + uuid.New().String()[:12]
	session, err := NewSession(SessionConfig{
		ID:           id,
		Route:        route,
		Instructions: instructions,
		Position:     position,
		Muted:        muted,
		Announcer:    m.announcer,
		Camera:       m.camera,
		OnStop:       m.onSessionStop,
		Logger:       m.logger,
	})
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	if m.overlays != nil {
		m.overlays.Lock()
	}

	m.logger.Info().
		Str("session_id", id).
		Str("route_id", route.ID).
		Int("instructions", len(instructions)).
		Msg("navigation session started")

	return session, nil
}

// GetSession returns the session with the given ID.
func (m *Manager) GetSession(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// StopSession stops the session and removes it from the manager. Stopping
// an already stopped session is not an error.
func (m *Manager) StopSession(id string, reason StopReason) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	return session.Stop(reason)
}

// ActiveCount reports how many sessions are currently active.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, session := range m.sessions {
		if session.Snapshot().Status == StatusActive {
			count++
		}
	}
	return count
}

func (m *Manager) fetchInstructions(ctx context.Context, route routing.Route) ([]routing.Instruction, error) {
	if len(route.Geometry) < 2 {
		return nil, ErrNoInstructions
	}

	resp, err := m.directions.GetDirections(ctx, routing.DirectionsRequest{
		Origin:      route.Geometry[0],
		Destination: route.Geometry[len(route.Geometry)-1],
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Routes) == 0 || len(resp.Routes[0].Steps) == 0 {
		return nil, ErrNoInstructions
	}
	return resp.Routes[0].Steps, nil
}

// onSessionStop releases overlay state once no session remains active.
func (m *Manager) onSessionStop(session *Session) {
	snapshot := session.Snapshot()
	m.logger.Info().
		Str("session_id", session.ID()).
		Str("stop_reason", string(snapshot.StopReason)).
		Msg("navigation session stopped")

	if m.overlays != nil && m.ActiveCount() == 0 {
		m.overlays.Unlock()
	}
}
