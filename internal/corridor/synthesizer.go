package corridor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/citysense/citysense/internal/geo"
	"github.com/citysense/citysense/internal/hazard"
	"github.com/citysense/citysense/internal/routing"
)

const (
	// SignificanceThreshold is the minimum field value a sample needs to
	// be considered for corridor synthesis.
	SignificanceThreshold = 30

	// maxPairDistanceSq bounds pairing to roughly 1 km at mid-latitudes,
	// in squared decimal degrees.
	maxPairDistanceSq = 0.0001

	// DefaultMaxPairs bounds external request volume and visual density.
	DefaultMaxPairs = 100

	// DefaultConcurrency is the path-fetch worker count.
	DefaultConcurrency = 8

	// DefaultPairTimeout bounds each individual path fetch.
	DefaultPairTimeout = 10 * time.Second
)

// PathFinder resolves connecting path geometry between two points.
type PathFinder interface {
	GetPath(ctx context.Context, from, to geo.Coordinate) (*routing.Path, error)
}

// SynthesizerConfig holds configuration for creating a Synthesizer.
type SynthesizerConfig struct {
	// Paths resolves connecting geometry for accepted pairs (required).
	Paths PathFinder

	// MaxPairs caps the number of pairs fetched per pass (optional,
	// defaults to 100).
	MaxPairs int

	// Concurrency is the path-fetch worker count (optional, defaults to 8).
	Concurrency int

	// PairTimeout bounds each individual path fetch (optional, defaults to 10s).
	PairTimeout time.Duration

	// Logger for synthesis operations.
	Logger zerolog.Logger
}

// Synthesizer builds corridor segments from hazard snapshots.
type Synthesizer struct {
	paths       PathFinder
	maxPairs    int
	concurrency int
	pairTimeout time.Duration
	logger      zerolog.Logger
}

// NewSynthesizer creates a new corridor synthesizer.
func NewSynthesizer(cfg SynthesizerConfig) *Synthesizer {
	maxPairs := cfg.MaxPairs
	if maxPairs <= 0 {
		maxPairs = DefaultMaxPairs
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	pairTimeout := cfg.PairTimeout
	if pairTimeout <= 0 {
		pairTimeout = DefaultPairTimeout
	}

	return &Synthesizer{
		paths:       cfg.Paths,
		maxPairs:    maxPairs,
		concurrency: concurrency,
		pairTimeout: pairTimeout,
		logger:      cfg.Logger,
	}
}

// candidatePair is an accepted endpoint pair awaiting path resolution.
type candidatePair struct {
	index     int
	a, b      hazard.Sample
	intensity float64
}

// Synthesize pairs nearby significant samples and resolves connecting
// geometry for each pair. A pair whose path fetch fails is dropped from the
// output; one failure never aborts the batch. Pairing depends on the input
// order of the samples, since each sample only considers later samples as
// neighbor candidates.
func (s *Synthesizer) Synthesize(ctx context.Context, samples []hazard.Sample, kind hazard.Kind) ([]Segment, error) {
	if _, err := hazard.ParseKind(string(kind)); err != nil {
		return nil, err
	}

	significant := make([]hazard.Sample, 0, len(samples))
	for _, sample := range samples {
		if v, ok := sample.Value(kind); ok && v >= SignificanceThreshold {
			significant = append(significant, sample)
		}
	}

	if len(significant) < 2 {
		s.logger.Debug().
			Str("kind", string(kind)).
			Int("significant", len(significant)).
			Msg("not enough significant samples for corridor synthesis")
		return nil, nil
	}

	pairs := s.selectPairs(significant, kind)
	if len(pairs) == 0 {
		return nil, nil
	}

	s.logger.Debug().
		Str("kind", string(kind)).
		Int("significant", len(significant)).
		Int("pairs", len(pairs)).
		Msg("resolving corridor pair geometry")

	return s.resolvePairs(ctx, pairs), nil
}

// selectPairs finds, for each significant sample, its nearest later neighbor
// within the proximity bound. Each unordered pair is accepted once, up to
// the pair cap.
func (s *Synthesizer) selectPairs(significant []hazard.Sample, kind hazard.Kind) []candidatePair {
	pairs := make([]candidatePair, 0, len(significant))
	seen := make(map[string]struct{})

	for i := range significant {
		var nearest *hazard.Sample
		minDistSq := maxPairDistanceSq

		for j := i + 1; j < len(significant); j++ {
			distSq := geo.SquaredPlanarDistance(significant[i].Coordinates, significant[j].Coordinates)
			if distSq < minDistSq {
				minDistSq = distSq
				nearest = &significant[j]
			}
		}

		if nearest != nil {
			key := pairKey(significant[i].ID, nearest.ID)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			pairs = append(pairs, candidatePair{
				index:     len(pairs),
				a:         significant[i],
				b:         *nearest,
				intensity: pairIntensity(significant[i], *nearest, kind),
			})
		}

		if len(seen) >= s.maxPairs {
			break
		}
	}

	return pairs
}

// resolvePairs fetches connecting geometry for all pairs concurrently and
// collects the successful outcomes in pair order.
func (s *Synthesizer) resolvePairs(ctx context.Context, pairs []candidatePair) []Segment {
	pairsChan := make(chan candidatePair, len(pairs))
	resolved := make([]*Segment, len(pairs))

	var wg sync.WaitGroup
	workers := s.concurrency
	if workers > len(pairs) {
		workers = len(pairs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pair := range pairsChan {
				select {
				case <-ctx.Done():
					return
				default:
					resolved[pair.index] = s.resolvePair(ctx, pair)
				}
			}
		}()
	}

	for _, pair := range pairs {
		pairsChan <- pair
	}
	close(pairsChan)
	wg.Wait()

	segments := make([]Segment, 0, len(pairs))
	for _, seg := range resolved {
		if seg != nil {
			segments = append(segments, *seg)
		}
	}

	s.logger.Debug().
		Int("requested", len(pairs)).
		Int("resolved", len(segments)).
		Msg("corridor synthesis completed")

	return segments
}

func (s *Synthesizer) resolvePair(ctx context.Context, pair candidatePair) *Segment {
	pairCtx, cancel := context.WithTimeout(ctx, s.pairTimeout)
	defer cancel()

	path, err := s.paths.GetPath(pairCtx, pair.a.Coordinates, pair.b.Coordinates)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("pair", pairKey(pair.a.ID, pair.b.ID)).
			Msg("corridor pair path fetch failed")
		return nil
	}
	if path == nil || len(path.Geometry) < 2 {
		return nil
	}

	a, b := pair.a.ID, pair.b.ID
	if b < a {
		a, b = b, a
	}
	return &Segment{
		EndpointA: a,
		EndpointB: b,
		Geometry:  path.Geometry,
		Intensity: pair.intensity,
	}
}

// pairIntensity is the mean of the two samples' risk values, clamped to [0,100].
func pairIntensity(a, b hazard.Sample, kind hazard.Kind) float64 {
	ra, _ := a.RiskValue(kind)
	rb, _ := b.RiskValue(kind)
	mean := (ra + rb) / 2
	if mean < 0 {
		return 0
	}
	if mean > 100 {
		return 100
	}
	return mean
}

func pairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + "-" + ids[1]
}
