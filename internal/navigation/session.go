package navigation

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/citysense/citysense/internal/geo"
	"github.com/citysense/citysense/internal/routing"
)

// Announcer speaks navigation announcements to the user.
type Announcer interface {
	Speak(text string)
	Cancel()
}

// Camera follows the user's position during navigation.
type Camera interface {
	Follow(position geo.Coordinate)
}

// NopAnnouncer discards all announcements.
type NopAnnouncer struct{}

func (NopAnnouncer) Speak(string) {}
func (NopAnnouncer) Cancel()      {}

// LogAnnouncer writes announcements to the log. Used by deployments
// without a speech output channel.
type LogAnnouncer struct {
	Logger zerolog.Logger
}

func (a LogAnnouncer) Speak(text string) {
	a.Logger.Info().Str("announcement", text).Msg("navigation announcement")
}

func (a LogAnnouncer) Cancel() {}

// SessionConfig holds configuration for creating a Session.
type SessionConfig struct {
	// ID identifies the session.
	ID string

	// Route is the chosen route to navigate.
	Route routing.Route

	// Instructions is the ordered maneuver list for the route.
	Instructions []routing.Instruction

	// Position is the user's position at start time.
	Position geo.Coordinate

	// Muted starts the session with announcements suppressed.
	Muted bool

	// Announcer speaks announcements (optional, defaults to NopAnnouncer).
	Announcer Announcer

	// Camera follows position updates (optional).
	Camera Camera

	// OnStop is invoked once when the session reaches Stopped (optional).
	OnStop func(*Session)

	// PositionBuffer sizes the position feed (optional, defaults to 16).
	PositionBuffer int

	// Logger for session events.
	Logger zerolog.Logger
}

// Session is one live navigation run. Position fixes feed the state machine
// through an owned channel; the subscription lives exactly as long as the
// session. All transitions are serialized.
type Session struct {
	id        string
	announcer Announcer
	camera    Camera
	onStop    func(*Session)
	logger    zerolog.Logger

	positions chan geo.Coordinate
	done      chan struct{}
	stopOnce  sync.Once

	mu    sync.Mutex
	state State
}

// NewSession starts navigating the given route. Start is refused when the
// user stands too far from the route's start point or the instruction list
// is empty.
func NewSession(cfg SessionConfig) (*Session, error) {
	announcer := cfg.Announcer
	if announcer == nil {
		announcer = NopAnnouncer{}
	}
	buffer := cfg.PositionBuffer
	if buffer <= 0 {
		buffer = 16
	}

	s := &Session{
		id:        cfg.ID,
		announcer: announcer,
		camera:    cfg.Camera,
		onStop:    cfg.OnStop,
		logger:    cfg.Logger.With().Str("session_id", cfg.ID).Logger(),
		positions: make(chan geo.Coordinate, buffer),
		done:      make(chan struct{}),
		state:     State{Status: StatusIdle},
	}

	if err := s.Apply(StartEvent{
		Position:     cfg.Position,
		Route:        cfg.Route,
		Instructions: cfg.Instructions,
		Muted:        cfg.Muted,
	}); err != nil {
		return nil, err
	}

	go s.run()
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Apply feeds one event through the state machine and carries out its
// effects. Events are processed one at a time, never concurrently.
func (s *Session) Apply(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, effects, err := Transition(s.state, ev)
	if err != nil {
		return err
	}
	s.state = next

	for _, effect := range effects {
		s.runEffect(effect)
	}

	if next.Status == StatusStopped {
		s.finish()
	}
	return nil
}

// UpdatePosition feeds one position fix into the session. Fixes arriving
// faster than they can be processed are dropped rather than queued.
func (s *Session) UpdatePosition(position geo.Coordinate) {
	select {
	case <-s.done:
	case s.positions <- position:
	default:
		s.logger.Debug().Msg("position fix dropped, session busy")
	}
}

// SetMuted gates whether announcements are spoken. Unmuting re-announces
// the current instruction.
func (s *Session) SetMuted(muted bool) error {
	return s.Apply(MuteEvent{Muted: muted})
}

// Stop ends the session. Safe to call more than once.
func (s *Session) Stop(reason StopReason) error {
	err := s.Apply(StopEvent{Reason: reason})
	if err == ErrSessionStopped {
		return nil
	}
	return err
}

func (s *Session) run() {
	for {
		select {
		case <-s.done:
			return
		case position := <-s.positions:
			if err := s.Apply(PositionEvent{Position: position}); err != nil {
				// The session may have stopped between the send and
				// the receive.
				s.logger.Debug().Err(err).Msg("position fix ignored")
			}
		}
	}
}

// runEffect executes one transition side effect. Called with the state
// lock held, keeping effects ordered with their transitions.
func (s *Session) runEffect(effect Effect) {
	switch e := effect.(type) {
	case AnnounceEffect:
		s.announcer.Speak(e.Text)
	case CancelSpeechEffect:
		s.announcer.Cancel()
	case FollowCameraEffect:
		if s.camera != nil {
			s.camera.Follow(e.Position)
		}
	case RestoreDisplayEffect:
		// Display restoration happens in the stop callback, where the
		// owner releases the overlay state this session held.
	}
}

// finish tears down the position subscription. Called with the lock held.
func (s *Session) finish() {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.onStop != nil {
			go s.onStop(s)
		}
	})
}
