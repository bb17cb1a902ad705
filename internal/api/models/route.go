package models

// RouteSearchRequest is the request body for searching candidate routes.
type RouteSearchRequest struct {
	Origin      *Point `json:"origin" validate:"required"`
	Destination *Point `json:"destination" validate:"required"`
}

// RouteSearchResponse is the response for a route search. Routes are ranked;
// exactly one carries recommended=true.
type RouteSearchResponse struct {
	GeneratedAt Timestamp     `json:"generatedAt"`
	Routes      []RouteOption `json:"routes"`
}

// RouteOption is one ranked candidate route.
type RouteOption struct {
	ID               string        `json:"id"`
	DistanceMeters   int           `json:"distanceMeters"`
	DurationSeconds  int           `json:"durationSeconds"`
	PotholeRisk      int           `json:"potholeRisk"`
	GarbageRisk      int           `json:"garbageRisk"`
	FloodRisk        int           `json:"floodRisk"`
	Recommended      bool          `json:"recommended"`
	RecommendReason  string        `json:"recommendReason,omitempty"`
	GeometryPolyline string        `json:"geometryPolyline"`
	Instructions     []Instruction `json:"instructions,omitempty"`
}

// Instruction represents a turn-by-turn maneuver step.
type Instruction struct {
	Text           string  `json:"text"`
	DistanceMeters float64 `json:"distanceMeters"`
	Maneuver       string  `json:"maneuver"`
	Modifier       string  `json:"modifier,omitempty"`
	Location       Point   `json:"location"`
}
