// Package hazard provides urban hazard sample data access and exposure scoring.
package hazard

import (
	"errors"
	"time"

	"github.com/citysense/citysense/internal/geo"
)

// Provider errors.
var (
	ErrSampleNotFound      = errors.New("hazard sample not found")
	ErrNoSamples           = errors.New("no hazard samples available")
	ErrProviderUnavailable = errors.New("hazard data provider unavailable")
	ErrUnknownKind         = errors.New("unknown hazard kind")
)

// Kind identifies one of the four sensed hazard dimensions.
type Kind string

const (
	// KindAir is ambient air pollution (higher = worse).
	KindAir Kind = "AIR"
	// KindPothole is road surface damage density (higher = worse).
	KindPothole Kind = "POTHOLE"
	// KindHygiene is sanitation level (higher = better; inverted for risk).
	KindHygiene Kind = "HYGIENE"
	// KindFlooding is water logging level (higher = worse).
	KindFlooding Kind = "FLOODING"
)

// KindInfo describes how a hazard kind is interpreted and rendered.
type KindInfo struct {
	// NeedsInversion is true when the raw field measures goodness and must
	// be flipped (risk = 100 - value) before use as a risk value.
	NeedsInversion bool

	// BaseColor is the rendering base color for this kind's overlay.
	BaseColor string

	// Label is the human-readable display name.
	Label string
}

// kindTable maps each kind to its interpretation. Adding a kind means adding
// a row here and a field on Sample; there is no string-based dispatch.
var kindTable = map[Kind]KindInfo{
	KindAir:      {NeedsInversion: false, BaseColor: "rgba(58,190,255,1)", Label: "Air Pollution"},
	KindPothole:  {NeedsInversion: false, BaseColor: "rgba(220,38,38,1)", Label: "Potholes"},
	KindHygiene:  {NeedsInversion: true, BaseColor: "rgba(22,163,74,1)", Label: "Garbage"},
	KindFlooding: {NeedsInversion: false, BaseColor: "rgba(37,99,235,1)", Label: "Flooding"},
}

// Kinds lists all hazard kinds in display order.
func Kinds() []Kind {
	return []Kind{KindAir, KindPothole, KindHygiene, KindFlooding}
}

// Info returns the interpretation table entry for a kind.
func Info(k Kind) (KindInfo, error) {
	info, ok := kindTable[k]
	if !ok {
		return KindInfo{}, ErrUnknownKind
	}
	return info, nil
}

// ParseKind converts an API string to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := kindTable[k]; !ok {
		return "", ErrUnknownKind
	}
	return k, nil
}

// Sample is one geolocated urban-condition measurement. Coordinates are
// always present; each hazard field is independently optional, and a nil
// field means "not measured here", never zero.
type Sample struct {
	ID          string
	Coordinates geo.Coordinate

	AirQuality        *float64
	PotholeDensity    *float64
	HygieneLevel      *float64
	WaterLoggingLevel *float64

	ObservedAt time.Time
}

// Value returns the raw field value for a kind, if measured.
func (s *Sample) Value(k Kind) (float64, bool) {
	var v *float64
	switch k {
	case KindAir:
		v = s.AirQuality
	case KindPothole:
		v = s.PotholeDensity
	case KindHygiene:
		v = s.HygieneLevel
	case KindFlooding:
		v = s.WaterLoggingLevel
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// RiskValue returns the 0-100 risk value for a kind, applying inversion
// where the kind requires it. The second return is false when the sample
// has no measurement for the kind.
func (s *Sample) RiskValue(k Kind) (float64, bool) {
	raw, ok := s.Value(k)
	if !ok {
		return 0, false
	}
	if kindTable[k].NeedsInversion {
		return 100 - raw, true
	}
	return raw, true
}

// Snapshot is a point-in-time working set of hazard samples. A new snapshot
// replaces the prior one wholesale; consumers never mutate it.
type Snapshot struct {
	Samples   []Sample
	FetchedAt time.Time
	Provider  string
}

// NewSnapshot creates a snapshot stamped with the current time.
func NewSnapshot(provider string, samples []Sample) *Snapshot {
	return &Snapshot{
		Samples:   samples,
		FetchedAt: time.Now(),
		Provider:  provider,
	}
}

// Get returns the sample with the given ID.
func (s *Snapshot) Get(id string) (*Sample, bool) {
	for i := range s.Samples {
		if s.Samples[i].ID == id {
			return &s.Samples[i], true
		}
	}
	return nil, false
}
