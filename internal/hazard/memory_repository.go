package hazard

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local development. Production should use
// PostgresRepository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	samples []Sample
}

// NewInMemoryRepository creates a new in-memory hazard sample repository.
func NewInMemoryRepository(samples []Sample) *InMemoryRepository {
	return &InMemoryRepository{samples: samples}
}

// ListSamples returns a copy of all stored samples.
func (r *InMemoryRepository) ListSamples(_ context.Context) ([]Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Sample, len(r.samples))
	copy(out, r.samples)
	return out, nil
}

// Replace swaps the full sample set, mirroring the full-replacement
// semantics of the upstream store.
func (r *InMemoryRepository) Replace(samples []Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = samples
}
