package models

// CorridorSynthesizeRequest is the request body for corridor synthesis.
type CorridorSynthesizeRequest struct {
	Kind string `json:"kind" validate:"required,oneof=AIR POTHOLE HYGIENE FLOODING"`
}

// CorridorSynthesizeResponse carries the synthesized corridor network and
// its renderable layer.
type CorridorSynthesizeResponse struct {
	Kind        string            `json:"kind"`
	GeneratedAt Timestamp         `json:"generatedAt"`
	Segments    []CorridorSegment `json:"segments"`
	Layer       HazardLayer       `json:"layer"`
}

// CorridorSegment is one resolved pair of significant hazard samples.
type CorridorSegment struct {
	Endpoints        [2]string `json:"endpoints"`
	Intensity        float64   `json:"intensity"`
	GeometryPolyline string    `json:"geometryPolyline"`
}
