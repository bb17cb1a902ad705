package models

// NavigationStartRequest starts a navigation session. The service searches
// routes between origin and destination and navigates the recommended one.
type NavigationStartRequest struct {
	Origin      *Point `json:"origin" validate:"required"`
	Destination *Point `json:"destination" validate:"required"`
	Position    *Point `json:"position" validate:"required"`
	Muted       bool   `json:"muted,omitempty"`
}

// NavigationPositionRequest is one live position fix for a session.
type NavigationPositionRequest struct {
	Position *Point `json:"position" validate:"required"`
}

// NavigationMuteRequest toggles announcement muting for a session.
type NavigationMuteRequest struct {
	Muted bool `json:"muted"`
}

// NavigationSession is the API view of a session's current state.
type NavigationSession struct {
	ID                      string       `json:"id"`
	Status                  string       `json:"status"`
	Route                   RouteOption  `json:"route"`
	CurrentIndex            int          `json:"currentIndex"`
	CurrentInstruction      *Instruction `json:"currentInstruction,omitempty"`
	DistanceRemainingMeters float64      `json:"distanceRemainingMeters"`
	Position                *Point       `json:"position,omitempty"`
	Muted                   bool         `json:"muted"`
	StopReason              string       `json:"stopReason,omitempty"`
}
