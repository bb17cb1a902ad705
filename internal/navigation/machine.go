// Package navigation drives turn-by-turn navigation sessions. The core is a
// pure transition function over an explicit event type, so the maneuver
// logic is testable without a live position source.
package navigation

import (
	"errors"
	"fmt"
	"math"

	"github.com/citysense/citysense/internal/geo"
	"github.com/citysense/citysense/internal/routing"
)

const (
	// MaxStartDistanceMeters is how far the user may stand from the
	// route's start point when navigation begins.
	MaxStartDistanceMeters = 500

	// ArrivalThresholdMeters is the distance at which the current
	// maneuver counts as reached and the session advances.
	ArrivalThresholdMeters = 25
)

// Sentinel errors for session operations.
var (
	// ErrTooFarFromStart indicates the user is not close enough to the
	// route's start point to begin navigating.
	ErrTooFarFromStart = errors.New("too far from route start")
	// ErrNoInstructions indicates the routing provider returned no maneuver steps.
	ErrNoInstructions = errors.New("no navigation instructions available")
	// ErrNotActive indicates the event only applies to an active session.
	ErrNotActive = errors.New("session is not active")
	// ErrSessionStopped indicates the session is terminal and accepts no further events.
	ErrSessionStopped = errors.New("session is stopped")
	// ErrAlreadyActive indicates a start was attempted on a running session.
	ErrAlreadyActive = errors.New("session is already active")
)

// Status is the session lifecycle state. Stopped is terminal; a new session
// must be created to navigate again.
type Status string

const (
	StatusIdle    Status = "IDLE"
	StatusActive  Status = "ACTIVE"
	StatusStopped Status = "STOPPED"
)

// StopReason records why a session ended.
type StopReason string

const (
	StopReasonNone      StopReason = ""
	StopReasonUser      StopReason = "USER"
	StopReasonArrived   StopReason = "ARRIVED"
	StopReasonAbandoned StopReason = "ABANDONED"
)

// State is the full session state threaded through Transition. It is a
// value type; Transition never mutates its input.
type State struct {
	Status            Status
	Route             routing.Route
	Instructions      []routing.Instruction
	CurrentIndex      int
	DistanceRemaining float64
	Position          geo.Coordinate
	HasPosition       bool
	Muted             bool
	StopReason        StopReason
}

// Event is an input to the transition function.
type Event interface {
	isEvent()
}

// StartEvent begins navigation on a chosen route.
type StartEvent struct {
	Position     geo.Coordinate
	Route        routing.Route
	Instructions []routing.Instruction
	Muted        bool
}

// PositionEvent is one live position fix.
type PositionEvent struct {
	Position geo.Coordinate
}

// MuteEvent toggles whether announcements are spoken.
type MuteEvent struct {
	Muted bool
}

// StopEvent ends the session.
type StopEvent struct {
	Reason StopReason
}

func (StartEvent) isEvent()    {}
func (PositionEvent) isEvent() {}
func (MuteEvent) isEvent()     {}
func (StopEvent) isEvent()     {}

// Effect is a side effect the caller must carry out after a transition.
type Effect interface {
	isEffect()
}

// AnnounceEffect speaks an instruction to the user.
type AnnounceEffect struct {
	Text string
}

// CancelSpeechEffect cancels any announcement in progress.
type CancelSpeechEffect struct{}

// FollowCameraEffect re-centers the map camera on the user.
type FollowCameraEffect struct {
	Position geo.Coordinate
}

// RestoreDisplayEffect returns the map to the pre-navigation route
// rendering.
type RestoreDisplayEffect struct{}

func (AnnounceEffect) isEffect()       {}
func (CancelSpeechEffect) isEffect()   {}
func (FollowCameraEffect) isEffect()   {}
func (RestoreDisplayEffect) isEffect() {}

// Transition applies one event to a session state and returns the new state
// plus the side effects to carry out. It is a pure function.
func Transition(s State, ev Event) (State, []Effect, error) {
	if s.Status == StatusStopped {
		return s, nil, ErrSessionStopped
	}

	switch e := ev.(type) {
	case StartEvent:
		return transitionStart(s, e)
	case PositionEvent:
		return transitionPosition(s, e)
	case MuteEvent:
		return transitionMute(s, e)
	case StopEvent:
		return transitionStop(s, e)
	default:
		return s, nil, fmt.Errorf("unknown event type %T", ev)
	}
}

func transitionStart(s State, e StartEvent) (State, []Effect, error) {
	if s.Status == StatusActive {
		return s, nil, ErrAlreadyActive
	}
	if len(e.Route.Geometry) == 0 {
		return s, nil, ErrNoInstructions
	}

	dist := startDistanceMeters(e.Route.Geometry[0], e.Position)
	if dist > MaxStartDistanceMeters {
		return s, nil, fmt.Errorf(
			"%w: start point is %.0f m away, move closer or re-pick the start point",
			ErrTooFarFromStart, dist)
	}

	if len(e.Instructions) == 0 {
		return s, nil, ErrNoInstructions
	}

	next := State{
		Status:            StatusActive,
		Route:             e.Route,
		Instructions:      e.Instructions,
		CurrentIndex:      0,
		DistanceRemaining: e.Instructions[0].DistanceMeters,
		Position:          e.Position,
		HasPosition:       true,
		Muted:             e.Muted,
	}

	effects := []Effect{FollowCameraEffect{Position: e.Position}}
	if !next.Muted {
		effects = append(effects, AnnounceEffect{
			Text: fmt.Sprintf("Starting navigation. In %s, %s",
				FormatDistance(next.DistanceRemaining), e.Instructions[0].Text),
		})
	}
	return next, effects, nil
}

func transitionPosition(s State, e PositionEvent) (State, []Effect, error) {
	if s.Status != StatusActive {
		return s, nil, ErrNotActive
	}

	next := s
	next.Position = e.Position
	next.HasPosition = true

	effects := []Effect{FollowCameraEffect{Position: e.Position}}

	// The index only ever advances, never rewinds, even if a fix drifts
	// back behind a maneuver already passed. Colocated maneuvers (a turn
	// immediately followed by an arrival) are crossed in one fix.
	advanced := false
	for {
		current := next.Instructions[next.CurrentIndex]
		next.DistanceRemaining = geo.DistanceMeters(e.Position, current.Location)
		if next.DistanceRemaining > ArrivalThresholdMeters {
			break
		}

		advanced = true
		next.CurrentIndex++
		if next.CurrentIndex >= len(next.Instructions) {
			// Final maneuver reached: the session completes on its own.
			next.Status = StatusStopped
			next.StopReason = StopReasonArrived
			next.CurrentIndex = len(next.Instructions) - 1
			next.DistanceRemaining = 0

			effects = append(effects, CancelSpeechEffect{})
			if !next.Muted {
				effects = append(effects, AnnounceEffect{Text: "You have reached your destination."})
			}
			effects = append(effects, RestoreDisplayEffect{})
			return next, effects, nil
		}
	}

	if advanced && !next.Muted {
		current := next.Instructions[next.CurrentIndex]
		effects = append(effects, AnnounceEffect{
			Text: fmt.Sprintf("In %s, %s", FormatDistance(next.DistanceRemaining), current.Text),
		})
	}
	return next, effects, nil
}

func transitionMute(s State, e MuteEvent) (State, []Effect, error) {
	if s.Status != StatusActive {
		return s, nil, ErrNotActive
	}
	if s.Muted == e.Muted {
		return s, nil, nil
	}

	next := s
	next.Muted = e.Muted

	if e.Muted {
		return next, []Effect{CancelSpeechEffect{}}, nil
	}

	// Unmuting re-announces the current instruction immediately.
	current := next.Instructions[next.CurrentIndex]
	return next, []Effect{AnnounceEffect{
		Text: fmt.Sprintf("In %s, %s", FormatDistance(next.DistanceRemaining), current.Text),
	}}, nil
}

func transitionStop(s State, e StopEvent) (State, []Effect, error) {
	if s.Status != StatusActive {
		return s, nil, ErrNotActive
	}

	next := s
	next.Status = StatusStopped
	next.StopReason = e.Reason
	if next.StopReason == StopReasonNone {
		next.StopReason = StopReasonUser
	}

	return next, []Effect{CancelSpeechEffect{}, RestoreDisplayEffect{}}, nil
}

// startDistanceMeters measures how far the user stands from the route's
// start point, with an extra latitude-cosine correction applied to the
// planar distance.
func startDistanceMeters(start, user geo.Coordinate) float64 {
	return geo.DistanceMeters(start, user) * math.Cos(user.Lat*math.Pi/180)
}
