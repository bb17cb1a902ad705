package hazard

import "context"

// Repository defines storage access for hazard samples. The sample store is
// written by the ingestion pipeline outside this service; the core only ever
// reads full snapshots from it.
type Repository interface {
	// ListSamples returns all current hazard samples.
	ListSamples(ctx context.Context) ([]Sample, error)
}

// RepositoryProvider adapts a Repository to the Provider interface.
type RepositoryProvider struct {
	repo Repository
	name string
}

// NewRepositoryProvider wraps a repository as a snapshot provider.
func NewRepositoryProvider(repo Repository, name string) *RepositoryProvider {
	return &RepositoryProvider{repo: repo, name: name}
}

// FetchSnapshot reads all samples as a full-replacement snapshot.
func (p *RepositoryProvider) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	samples, err := p.repo.ListSamples(ctx)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(p.name, samples), nil
}
