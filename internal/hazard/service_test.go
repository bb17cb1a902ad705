package hazard_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citysense/citysense/internal/geo"
	"github.com/citysense/citysense/internal/hazard"
)

type fakeProvider struct {
	fetchCount atomic.Int64
	samples    []hazard.Sample
	err        error
}

func (p *fakeProvider) FetchSnapshot(_ context.Context) (*hazard.Snapshot, error) {
	p.fetchCount.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return hazard.NewSnapshot("fake", p.samples), nil
}

func testSamples() []hazard.Sample {
	return []hazard.Sample{
		{ID: "s1", Coordinates: geo.Coordinate{Lon: 77.31, Lat: 28.36}, AirQuality: f64(120)},
		{ID: "s2", Coordinates: geo.Coordinate{Lon: 77.32, Lat: 28.37}, PotholeDensity: f64(65)},
	}
}

func TestService_GetSnapshot_CachesBetweenCalls(t *testing.T) {
	provider := &fakeProvider{samples: testSamples()}
	svc := hazard.NewService(hazard.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
		CacheTTL: time.Minute,
	})

	first, err := svc.GetSnapshot(context.Background())
	require.NoError(t, err)
	second, err := svc.GetSnapshot(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second, "second read must reuse the cached snapshot")
	assert.Equal(t, int64(1), provider.fetchCount.Load())
}

func TestService_Invalidate_ForcesRefetch(t *testing.T) {
	provider := &fakeProvider{samples: testSamples()}
	svc := hazard.NewService(hazard.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
		CacheTTL: time.Minute,
	})

	_, err := svc.GetSnapshot(context.Background())
	require.NoError(t, err)

	svc.Invalidate()

	_, err = svc.GetSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), provider.fetchCount.Load())
}

func TestService_Refresh_ServesStaleOnProviderError(t *testing.T) {
	provider := &fakeProvider{samples: testSamples()}
	svc := hazard.NewService(hazard.ServiceConfig{
		Provider:        provider,
		Logger:          zerolog.Nop(),
		CacheTTL:        time.Minute,
		StaleIfErrorTTL: time.Hour,
	})

	first, err := svc.GetSnapshot(context.Background())
	require.NoError(t, err)

	// Provider starts failing; an invalidated cache should fall back to the
	// stale snapshot rather than surfacing the error.
	provider.err = errors.New("store down")
	svc.Invalidate()

	got, err := svc.GetSnapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestService_Refresh_ErrorWithNoStaleData(t *testing.T) {
	provider := &fakeProvider{err: errors.New("store down")}
	svc := hazard.NewService(hazard.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
	})

	_, err := svc.GetSnapshot(context.Background())
	assert.Error(t, err)
}

func TestService_SnapshotAge(t *testing.T) {
	provider := &fakeProvider{samples: testSamples()}
	svc := hazard.NewService(hazard.ServiceConfig{
		Provider: provider,
		Logger:   zerolog.Nop(),
	})

	_, ok := svc.SnapshotAge()
	assert.False(t, ok, "no snapshot before first fetch")

	_, err := svc.GetSnapshot(context.Background())
	require.NoError(t, err)

	age, ok := svc.SnapshotAge()
	require.True(t, ok)
	assert.Less(t, age, time.Minute)
}
