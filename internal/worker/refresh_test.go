package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citysense/citysense/internal/corridor"
	"github.com/citysense/citysense/internal/geo"
	"github.com/citysense/citysense/internal/hazard"
	"github.com/citysense/citysense/internal/overlay"
	"github.com/citysense/citysense/internal/routing"
	"github.com/citysense/citysense/internal/worker"
)

type fakeSnapshotProvider struct {
	samples []hazard.Sample
	err     error
	calls   int
}

func (p *fakeSnapshotProvider) FetchSnapshot(_ context.Context) (*hazard.Snapshot, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return hazard.NewSnapshot("fake", p.samples), nil
}

type fakePathFinder struct{}

func (f *fakePathFinder) GetPath(_ context.Context, from, to geo.Coordinate) (*routing.Path, error) {
	return &routing.Path{Geometry: []geo.Coordinate{from, to}}, nil
}

func f64p(v float64) *float64 { return &v }

// testSamples returns two pothole samples close enough to pair.
func testSamples() []hazard.Sample {
	return []hazard.Sample{
		{
			ID:             "s1",
			Coordinates:    geo.Coordinate{Lon: 77.3100, Lat: 28.3600},
			PotholeDensity: f64p(80),
			ObservedAt:     time.Now(),
		},
		{
			ID:             "s2",
			Coordinates:    geo.Coordinate{Lon: 77.3145, Lat: 28.3622},
			PotholeDensity: f64p(60),
			ObservedAt:     time.Now(),
		},
	}
}

func newTestJob(provider hazard.Provider, overlays *overlay.Registry, cfg worker.RefreshConfig) *worker.RefreshJob {
	hazards := hazard.NewService(hazard.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
	})
	corridors := corridor.NewSynthesizer(corridor.SynthesizerConfig{
		Paths:  &fakePathFinder{},
		Logger: zerolog.Nop(),
	})

	return worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:    cfg,
		Logger:    zerolog.Nop(),
		Hazards:   hazards,
		Corridors: corridors,
		Overlays:  overlays,
	})
}

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()

	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.RebuildCorridors)
	assert.True(t, cfg.RebuildHeatmap)
	assert.Equal(t, hazard.Kinds(), cfg.Kinds)
	assert.Equal(t, 4, cfg.TotalKinds())
}

func TestRefreshJob_Run_RebuildsAllKinds(t *testing.T) {
	provider := &fakeSnapshotProvider{samples: testSamples()}
	overlays := overlay.NewRegistry()

	job := newTestJob(provider, overlays, worker.DefaultRefreshConfig())
	result := job.Run(context.Background())

	require.NotNil(t, result)
	assert.Equal(t, 4, result.TotalKinds)
	assert.Equal(t, 4, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Greater(t, result.Duration, time.Duration(0))

	// Only the pothole kind has significant samples, so only it produces
	// segments; every kind still publishes its layer.
	assert.Equal(t, 1, result.Segments)

	_, err := overlays.Get(overlay.CorridorLayerID(hazard.KindPothole))
	assert.NoError(t, err)
	_, err = overlays.Get(overlay.HeatmapLayerID)
	assert.NoError(t, err)
}

func TestRefreshJob_Run_SnapshotFailure(t *testing.T) {
	provider := &fakeSnapshotProvider{err: errors.New("provider down")}

	job := newTestJob(provider, overlay.NewRegistry(), worker.DefaultRefreshConfig())
	result := job.Run(context.Background())

	assert.Equal(t, 4, result.Failed)
	assert.Equal(t, 0, result.Successful)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error, "provider down")
}

func TestRefreshJob_Run_ForcesFreshSnapshot(t *testing.T) {
	provider := &fakeSnapshotProvider{samples: testSamples()}
	job := newTestJob(provider, overlay.NewRegistry(), worker.DefaultRefreshConfig())

	_ = job.Run(context.Background())
	_ = job.Run(context.Background())

	// Each run invalidates the cache, so the provider is hit every time
	// even within the cache TTL.
	assert.Equal(t, 2, provider.calls)
}

func TestRefreshJob_Run_LockedRegistry(t *testing.T) {
	provider := &fakeSnapshotProvider{samples: testSamples()}
	overlays := overlay.NewRegistry()
	overlays.Lock()

	job := newTestJob(provider, overlays, worker.DefaultRefreshConfig())
	result := job.Run(context.Background())

	// A locked registry skips layer installs but the rebuild still succeeds.
	assert.Equal(t, 4, result.Successful)
	assert.Empty(t, overlays.Active())
}

func TestRefreshJob_Run_NoServices(t *testing.T) {
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Kinds:       []hazard.Kind{hazard.KindAir},
			Concurrency: 1,
			Timeout:     time.Second,
		},
		Logger: zerolog.Nop(),
	})

	result := job.Run(context.Background())

	// Should complete without panicking
	assert.NotNil(t, result)
	assert.Equal(t, 1, result.TotalKinds)
	assert.Greater(t, result.Duration, time.Duration(0))
}

func TestRefreshJob_Run_SnapshotOnly(t *testing.T) {
	provider := &fakeSnapshotProvider{samples: testSamples()}
	overlays := overlay.NewRegistry()

	cfg := worker.DefaultRefreshConfig()
	cfg.RebuildCorridors = false
	cfg.RebuildHeatmap = false

	job := newTestJob(provider, overlays, cfg)
	result := job.Run(context.Background())

	assert.Equal(t, 4, result.Successful)
	assert.Equal(t, 1, provider.calls)
	assert.Empty(t, overlays.Active())
}

func TestRefreshJob_Run_ContextCancellation(t *testing.T) {
	provider := &fakeSnapshotProvider{samples: testSamples()}
	job := newTestJob(provider, overlay.NewRegistry(), worker.RefreshConfig{
		Kinds:            hazard.Kinds(),
		Concurrency:      1,
		Timeout:          100 * time.Millisecond,
		RebuildCorridors: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := job.Run(ctx)

	// Should complete (even if not all kinds processed)
	assert.NotNil(t, result)
}

func TestRefreshJob_GetMetrics(t *testing.T) {
	provider := &fakeSnapshotProvider{samples: testSamples()}
	job := newTestJob(provider, overlay.NewRegistry(), worker.DefaultRefreshConfig())

	_ = job.Run(context.Background())

	metrics := job.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalRefreshes)
	assert.Equal(t, int64(1), metrics.SnapshotFetches)
	assert.Equal(t, int64(4), metrics.CorridorRebuilds)
	assert.Equal(t, int64(1), metrics.HeatmapRebuilds)
	assert.NotZero(t, metrics.LastRefreshAt)
	assert.Greater(t, metrics.LastRefreshDuration, time.Duration(0))
}

func TestRefreshJob_MetricsSnapshot(t *testing.T) {
	provider := &fakeSnapshotProvider{samples: testSamples()}
	job := newTestJob(provider, overlay.NewRegistry(), worker.DefaultRefreshConfig())

	_ = job.Run(context.Background())

	snapshot := job.MetricsSnapshot()

	assert.Contains(t, snapshot, "total_refreshes")
	assert.Contains(t, snapshot, "successful_kinds")
	assert.Contains(t, snapshot, "failed_kinds")
	assert.Contains(t, snapshot, "segments_built")
	assert.Contains(t, snapshot, "last_refresh_at")
	assert.Contains(t, snapshot, "last_refresh_duration")
}

func TestNewRefreshJob_DefaultConfig(t *testing.T) {
	// Create job with empty config - should use defaults
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{}, // Empty
		Logger: zerolog.Nop(),
	})

	metrics := job.GetMetrics()
	assert.Equal(t, int64(0), metrics.TotalRefreshes) // Not run yet
}

func TestRefreshError_Fields(t *testing.T) {
	err := worker.RefreshError{
		Kind:  hazard.KindFlooding,
		Error: "connection refused",
	}

	assert.Equal(t, hazard.KindFlooding, err.Kind)
	assert.Equal(t, "connection refused", err.Error)
}

// BenchmarkRefreshJob_Run benchmarks the refresh job.
func BenchmarkRefreshJob_Run(b *testing.B) {
	provider := &fakeSnapshotProvider{samples: testSamples()}
	job := newTestJob(provider, overlay.NewRegistry(), worker.DefaultRefreshConfig())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = job.Run(context.Background())
	}
}
