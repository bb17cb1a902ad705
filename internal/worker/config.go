// Package worker provides background job processing for CitySense.
package worker

import (
	"time"

	"github.com/citysense/citysense/internal/hazard"
)

// RefreshConfig holds configuration for the snapshot refresh job.
type RefreshConfig struct {
	// Kinds are the hazard kinds whose corridor layers get rebuilt.
	// If empty, uses hazard.Kinds().
	Kinds []hazard.Kind

	// Concurrency is the number of concurrent corridor rebuilds.
	// Default: 2
	Concurrency int

	// Timeout is the timeout for each per-kind rebuild.
	// Default: 30 seconds
	Timeout time.Duration

	// RebuildCorridors enables corridor layer rebuilds.
	// Default: true
	RebuildCorridors bool

	// RebuildHeatmap enables the air quality heatmap rebuild.
	// Default: true
	RebuildHeatmap bool
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Kinds:            hazard.Kinds(),
		Concurrency:      2,
		Timeout:          30 * time.Second,
		RebuildCorridors: true,
		RebuildHeatmap:   true,
	}
}

// TotalKinds returns the number of hazard kinds the job covers.
func (c RefreshConfig) TotalKinds() int {
	return len(c.Kinds)
}
