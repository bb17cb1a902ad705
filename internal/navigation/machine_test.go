package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citysense/citysense/internal/geo"
	"github.com/citysense/citysense/internal/routing"
)

// testRoute starts at (77.3100, 28.3600) and heads north.
func testRoute() routing.Route {
	return routing.Route{
		ID: "rt_test",
		Geometry: []geo.Coordinate{
			{Lon: 77.3100, Lat: 28.3600},
			{Lon: 77.3100, Lat: 28.3650},
			{Lon: 77.3100, Lat: 28.3700},
		},
		DurationSeconds: 300,
	}
}

func testInstructions() []routing.Instruction {
	return []routing.Instruction{
		{
			Text:           "Drive north on Mathura Road.",
			DistanceMeters: 550,
			Maneuver:       "depart",
			Location:       geo.Coordinate{Lon: 77.3100, Lat: 28.3650},
		},
		{
			Text:           "Turn right onto Sector Road.",
			DistanceMeters: 550,
			Maneuver:       "turn",
			Modifier:       "right",
			Location:       geo.Coordinate{Lon: 77.3100, Lat: 28.3700},
		},
		{
			Text:           "You have arrived at your destination.",
			DistanceMeters: 0,
			Maneuver:       "arrive",
			Location:       geo.Coordinate{Lon: 77.3100, Lat: 28.3700},
		},
	}
}

// positionAtMeters returns a point roughly the given distance north of the
// route origin, accounting for the latitude-cosine correction applied to
// the start check.
func positionNorthOfStart(meters float64) geo.Coordinate {
	return geo.Coordinate{Lon: 77.3100, Lat: 28.3600 + meters/111320}
}

func startEvent(position geo.Coordinate) StartEvent {
	return StartEvent{
		Position:     position,
		Route:        testRoute(),
		Instructions: testInstructions(),
	}
}

func announcements(effects []Effect) []string {
	var texts []string
	for _, e := range effects {
		if a, ok := e.(AnnounceEffect); ok {
			texts = append(texts, a.Text)
		}
	}
	return texts
}

func TestTransition_StartRefusedWhenTooFar(t *testing.T) {
	// 600 m from the origin: refused. The planar distance gets an extra
	// cosine correction, so use a raw offset comfortably past 500 m
	// after correction (600 / cos(28.36 deg) ~ 682 m raw).
	_, _, err := Transition(State{Status: StatusIdle}, startEvent(positionNorthOfStart(682)))
	assert.ErrorIs(t, err, ErrTooFarFromStart)
}

func TestTransition_StartSucceedsNearby(t *testing.T) {
	// 400 m away (after correction): accepted.
	state, effects, err := Transition(State{Status: StatusIdle}, startEvent(positionNorthOfStart(400)))
	require.NoError(t, err)

	assert.Equal(t, StatusActive, state.Status)
	assert.Equal(t, 0, state.CurrentIndex)
	assert.Equal(t, 550.0, state.DistanceRemaining)
	assert.True(t, state.HasPosition)

	texts := announcements(effects)
	require.Len(t, texts, 1)
	assert.Equal(t, "Starting navigation. In 550 m, Drive north on Mathura Road.", texts[0])
}

func TestTransition_StartMutedSuppressesAnnouncement(t *testing.T) {
	ev := startEvent(positionNorthOfStart(100))
	ev.Muted = true

	state, effects, err := Transition(State{Status: StatusIdle}, ev)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, state.Status)
	assert.Empty(t, announcements(effects))
}

func TestTransition_StartRefusedWithoutInstructions(t *testing.T) {
	ev := startEvent(positionNorthOfStart(100))
	ev.Instructions = nil

	_, _, err := Transition(State{Status: StatusIdle}, ev)
	assert.ErrorIs(t, err, ErrNoInstructions)
}

func TestTransition_PositionAdvancesAtArrivalThreshold(t *testing.T) {
	state, _, err := Transition(State{Status: StatusIdle}, startEvent(positionNorthOfStart(100)))
	require.NoError(t, err)

	// A fix well before the first maneuver: index holds, distance updates.
	state, effects, err := Transition(state, PositionEvent{Position: positionNorthOfStart(300)})
	require.NoError(t, err)
	assert.Equal(t, 0, state.CurrentIndex)
	assert.InDelta(t, 256, state.DistanceRemaining, 10)
	assert.Empty(t, announcements(effects))

	// A fix within the arrival threshold of instruction 0's maneuver
	// point: index advances and the next instruction is announced.
	nearManeuver := geo.Coordinate{Lon: 77.3100, Lat: 28.3650 + 10.0/111320}
	state, effects, err = Transition(state, PositionEvent{Position: nearManeuver})
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentIndex)

	texts := announcements(effects)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Turn right onto Sector Road.")
}

func TestTransition_CurrentIndexNeverDecreases(t *testing.T) {
	state, _, err := Transition(State{Status: StatusIdle}, startEvent(positionNorthOfStart(100)))
	require.NoError(t, err)

	// Advance past instruction 0.
	state, _, err = Transition(state, PositionEvent{Position: geo.Coordinate{Lon: 77.3100, Lat: 28.3650}})
	require.NoError(t, err)
	require.Equal(t, 1, state.CurrentIndex)

	// A later fix drifts back toward the start, showing a larger distance
	// to instruction 1 than any fix showed for instruction 0. The index
	// must hold at 1.
	state, _, err = Transition(state, PositionEvent{Position: positionNorthOfStart(200)})
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentIndex)
}

func TestTransition_ArrivalStopsSession(t *testing.T) {
	state, _, err := Transition(State{Status: StatusIdle}, startEvent(positionNorthOfStart(100)))
	require.NoError(t, err)

	// Reach the first maneuver, then the second. The final instruction
	// shares the second maneuver's location, so the same fix completes
	// the session.
	state, _, err = Transition(state, PositionEvent{Position: geo.Coordinate{Lon: 77.3100, Lat: 28.3650}})
	require.NoError(t, err)

	state, effects, err := Transition(state, PositionEvent{Position: geo.Coordinate{Lon: 77.3100, Lat: 28.3700}})
	require.NoError(t, err)

	assert.Equal(t, StatusStopped, state.Status)
	assert.Equal(t, StopReasonArrived, state.StopReason)
	assert.Equal(t, 0.0, state.DistanceRemaining)

	texts := announcements(effects)
	require.Len(t, texts, 1)
	assert.Equal(t, "You have reached your destination.", texts[0])

	// Terminal: no further transitions.
	_, _, err = Transition(state, PositionEvent{Position: positionNorthOfStart(100)})
	assert.ErrorIs(t, err, ErrSessionStopped)
}

func TestTransition_MuteGatesAnnouncements(t *testing.T) {
	state, _, err := Transition(State{Status: StatusIdle}, startEvent(positionNorthOfStart(100)))
	require.NoError(t, err)

	state, effects, err := Transition(state, MuteEvent{Muted: true})
	require.NoError(t, err)
	assert.True(t, state.Muted)
	assert.Contains(t, effects, Effect(CancelSpeechEffect{}))

	// Advancing while muted produces no announcement.
	state, effects, err = Transition(state, PositionEvent{Position: geo.Coordinate{Lon: 77.3100, Lat: 28.3650}})
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentIndex)
	assert.Empty(t, announcements(effects))

	// Unmuting re-announces the current instruction immediately.
	state, effects, err = Transition(state, MuteEvent{Muted: false})
	require.NoError(t, err)
	assert.False(t, state.Muted)
	texts := announcements(effects)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Turn right onto Sector Road.")
}

func TestTransition_StopIsTerminal(t *testing.T) {
	state, _, err := Transition(State{Status: StatusIdle}, startEvent(positionNorthOfStart(100)))
	require.NoError(t, err)

	state, effects, err := Transition(state, StopEvent{})
	require.NoError(t, err)
	assert.Equal(t, StatusStopped, state.Status)
	assert.Equal(t, StopReasonUser, state.StopReason)
	assert.Contains(t, effects, Effect(CancelSpeechEffect{}))
	assert.Contains(t, effects, Effect(RestoreDisplayEffect{}))

	_, _, err = Transition(state, StopEvent{})
	assert.ErrorIs(t, err, ErrSessionStopped)
	_, _, err = Transition(state, MuteEvent{Muted: true})
	assert.ErrorIs(t, err, ErrSessionStopped)
}

func TestTransition_EventsRequireActiveSession(t *testing.T) {
	idle := State{Status: StatusIdle}

	_, _, err := Transition(idle, PositionEvent{Position: positionNorthOfStart(100)})
	assert.ErrorIs(t, err, ErrNotActive)
	_, _, err = Transition(idle, MuteEvent{Muted: true})
	assert.ErrorIs(t, err, ErrNotActive)
	_, _, err = Transition(idle, StopEvent{})
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		meters float64
		want   string
	}{
		{0, ""},
		{-5, ""},
		{8, "10 m"},
		{44, "40 m"},
		{95, "100 m"},
		{250.4, "250 m"},
		{999, "999 m"},
		{1000, "1.0 km"},
		{1540, "1.5 km"},
		{12345, "12.3 km"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDistance(tt.meters), "meters=%v", tt.meters)
	}
}
