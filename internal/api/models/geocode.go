package models

// GeocodeSuggestion is one autocomplete candidate.
type GeocodeSuggestion struct {
	ID        string `json:"id"`
	PlaceName string `json:"placeName"`
	Center    Point  `json:"center"`
}

// GeocodeSuggestResponse lists autocomplete candidates for a partial query.
type GeocodeSuggestResponse struct {
	Query       string              `json:"query"`
	Suggestions []GeocodeSuggestion `json:"suggestions"`
}

// GeocodeForwardResponse resolves a place query to a coordinate.
type GeocodeForwardResponse struct {
	Query string `json:"query"`
	Point Point  `json:"point"`
}

// GeocodeReverseResponse resolves a coordinate to a place name.
type GeocodeReverseResponse struct {
	Point     Point  `json:"point"`
	PlaceName string `json:"placeName"`
}
