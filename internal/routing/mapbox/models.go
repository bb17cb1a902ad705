package mapbox

// directionsResponse is the Mapbox Directions API response.
type directionsResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message,omitempty"`
	Routes  []mapboxRoute  `json:"routes"`
	UUID    string         `json:"uuid,omitempty"`
}

type mapboxRoute struct {
	Geometry geoJSONLineString `json:"geometry"`
	Legs     []mapboxLeg       `json:"legs"`
	Distance float64           `json:"distance"` // meters
	Duration float64           `json:"duration"` // seconds
}

type mapboxLeg struct {
	Steps []mapboxStep `json:"steps"`
}

type mapboxStep struct {
	Distance float64        `json:"distance"`
	Maneuver mapboxManeuver `json:"maneuver"`
}

type mapboxManeuver struct {
	Instruction string    `json:"instruction"`
	Type        string    `json:"type"`
	Modifier    string    `json:"modifier,omitempty"`
	Location    []float64 `json:"location,omitempty"` // [lon, lat]
}

// geoJSONLineString is the geometry in [lon, lat] coordinate order.
type geoJSONLineString struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}
