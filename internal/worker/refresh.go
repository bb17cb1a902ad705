package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/citysense/citysense/internal/corridor"
	"github.com/citysense/citysense/internal/hazard"
	"github.com/citysense/citysense/internal/overlay"
)

// RefreshJob refetches the hazard snapshot and rebuilds overlay layers.
type RefreshJob struct {
	config RefreshConfig
	logger zerolog.Logger

	// Services (optional, nil if not configured)
	hazards   *hazard.Service
	corridors *corridor.Synthesizer
	overlays  *overlay.Registry

	// Metrics
	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRefreshes   int64
	SuccessfulKinds  int64
	FailedKinds      int64
	SnapshotFetches  int64
	CorridorRebuilds int64
	HeatmapRebuilds  int64
	SegmentsBuilt    int64

	// Timings
	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config    RefreshConfig
	Logger    zerolog.Logger
	Hazards   *hazard.Service
	Corridors *corridor.Synthesizer
	Overlays  *overlay.Registry
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if len(config.Kinds) == 0 {
		config = DefaultRefreshConfig()
	}

	return &RefreshJob{
		config:    config,
		logger:    cfg.Logger,
		hazards:   cfg.Hazards,
		corridors: cfg.Corridors,
		overlays:  cfg.Overlays,
		metrics:   &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	TotalKinds int
	Successful int
	Failed     int
	Segments   int
	Errors     []RefreshError
}

// RefreshError represents an error during refresh.
type RefreshError struct {
	Kind  hazard.Kind
	Error string
}

// Run executes the refresh job: one snapshot fetch, then a corridor rebuild
// per configured hazard kind.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{
		StartTime:  startTime,
		TotalKinds: j.config.TotalKinds(),
	}

	j.logger.Info().
		Int("total_kinds", result.TotalKinds).
		Int("concurrency", j.config.Concurrency).
		Msg("starting snapshot refresh job")

	snapshot := j.refreshSnapshot(ctx, result)

	if snapshot != nil && j.config.RebuildCorridors && j.corridors != nil {
		j.rebuildCorridors(ctx, snapshot, result)
	} else {
		// Nothing to rebuild; the snapshot fetch alone counts as the run.
		result.Successful = result.TotalKinds - result.Failed
	}

	if snapshot != nil && j.config.RebuildHeatmap {
		if err := j.rebuildHeatmap(snapshot); err != nil {
			j.logger.Warn().Err(err).Msg("heatmap rebuild failed")
		} else {
			atomic.AddInt64(&j.metrics.HeatmapRebuilds, 1)
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("segments", result.Segments).
		Msg("snapshot refresh job completed")

	return result
}

// refreshSnapshot drops the cached snapshot and fetches a fresh one. On
// failure every kind is marked failed since there is nothing to rebuild from.
func (j *RefreshJob) refreshSnapshot(ctx context.Context, result *RefreshResult) *hazard.Snapshot {
	if j.hazards == nil {
		return nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	j.hazards.Invalidate()
	snapshot, err := j.hazards.GetSnapshot(fetchCtx)
	if err != nil {
		j.logger.Error().Err(err).Msg("snapshot fetch failed")
		result.Failed = result.TotalKinds
		result.Errors = append(result.Errors, RefreshError{Error: err.Error()})
		return nil
	}

	atomic.AddInt64(&j.metrics.SnapshotFetches, 1)
	return snapshot
}

type kindResult struct {
	kind     hazard.Kind
	segments int
	err      error
}

func (j *RefreshJob) rebuildCorridors(ctx context.Context, snapshot *hazard.Snapshot, result *RefreshResult) {
	kindsChan := make(chan hazard.Kind, len(j.config.Kinds))
	resultsChan := make(chan kindResult, len(j.config.Kinds))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.rebuildWorker(ctx, snapshot, kindsChan, resultsChan)
		}()
	}

	for _, k := range j.config.Kinds {
		kindsChan <- k
	}
	close(kindsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for kr := range resultsChan {
		if kr.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{Kind: kr.kind, Error: kr.err.Error()})
			continue
		}
		result.Successful++
		result.Segments += kr.segments
		atomic.AddInt64(&j.metrics.CorridorRebuilds, 1)
	}
}

func (j *RefreshJob) rebuildWorker(ctx context.Context, snapshot *hazard.Snapshot, kinds <-chan hazard.Kind, results chan<- kindResult) {
	for kind := range kinds {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.rebuildKind(ctx, snapshot, kind)
		}
	}
}

func (j *RefreshJob) rebuildKind(ctx context.Context, snapshot *hazard.Snapshot, kind hazard.Kind) kindResult {
	kindCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	segments, err := j.corridors.Synthesize(kindCtx, snapshot.Samples, kind)
	if err != nil {
		return kindResult{kind: kind, err: err}
	}

	if err := j.publishCorridorLayer(kind, segments); err != nil {
		return kindResult{kind: kind, err: err}
	}

	return kindResult{kind: kind, segments: len(segments)}
}

// publishCorridorLayer installs the rebuilt layer in the overlay registry.
// A locked registry means a navigation session owns the display; the rebuild
// still counts and the layer will land on the next run.
func (j *RefreshJob) publishCorridorLayer(kind hazard.Kind, segments []corridor.Segment) error {
	if j.overlays == nil {
		return nil
	}

	layer, err := overlay.NewCorridorLayer(kind, segments)
	if err != nil {
		return err
	}

	if err := j.overlays.Set(layer); err != nil {
		if errors.Is(err, overlay.ErrRegistryLocked) {
			j.logger.Debug().Str("kind", string(kind)).Msg("overlay registry locked, skipping layer update")
			return nil
		}
		return err
	}
	return nil
}

func (j *RefreshJob) rebuildHeatmap(snapshot *hazard.Snapshot) error {
	if j.overlays == nil {
		return nil
	}

	layer := overlay.NewHeatmapLayer(snapshot.Samples)
	if err := j.overlays.Set(layer); err != nil {
		if errors.Is(err, overlay.ErrRegistryLocked) {
			j.logger.Debug().Msg("overlay registry locked, skipping heatmap update")
			return nil
		}
		return err
	}
	return nil
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRefreshes++
	j.metrics.SuccessfulKinds += int64(result.Successful)
	j.metrics.FailedKinds += int64(result.Failed)
	j.metrics.SegmentsBuilt += int64(result.Segments)
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRefreshes:      j.metrics.TotalRefreshes,
		SuccessfulKinds:     j.metrics.SuccessfulKinds,
		FailedKinds:         j.metrics.FailedKinds,
		SnapshotFetches:     j.metrics.SnapshotFetches,
		CorridorRebuilds:    j.metrics.CorridorRebuilds,
		HeatmapRebuilds:     j.metrics.HeatmapRebuilds,
		SegmentsBuilt:       j.metrics.SegmentsBuilt,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_refreshes":       m.TotalRefreshes,
		"successful_kinds":      m.SuccessfulKinds,
		"failed_kinds":          m.FailedKinds,
		"snapshot_fetches":      m.SnapshotFetches,
		"corridor_rebuilds":     m.CorridorRebuilds,
		"heatmap_rebuilds":      m.HeatmapRebuilds,
		"segments_built":        m.SegmentsBuilt,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
	}
}
