package overlay

import (
	"errors"
	"sort"
	"sync"
)

// ErrRegistryLocked indicates layer toggles are refused because an active
// navigation session owns the overlay state.
var ErrRegistryLocked = errors.New("overlay registry locked by navigation session")

// ErrLayerNotFound indicates no layer is registered under the given ID.
var ErrLayerNotFound = errors.New("overlay layer not found")

// Registry owns the set of currently active overlay layers, keyed by layer
// ID. While locked, mutations are refused so a navigation session's display
// state cannot be disturbed by concurrent layer toggles.
type Registry struct {
	mu     sync.RWMutex
	layers map[string]Layer
	locked bool
}

// NewRegistry creates an empty layer registry.
func NewRegistry() *Registry {
	return &Registry{layers: make(map[string]Layer)}
}

// Set registers or replaces a layer.
func (r *Registry) Set(layer Layer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked {
		return ErrRegistryLocked
	}
	r.layers[layer.ID] = layer
	return nil
}

// Remove drops the layer with the given ID.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked {
		return ErrRegistryLocked
	}
	if _, ok := r.layers[id]; !ok {
		return ErrLayerNotFound
	}
	delete(r.layers, id)
	return nil
}

// Get returns the layer registered under the given ID.
func (r *Registry) Get(id string) (Layer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	layer, ok := r.layers[id]
	if !ok {
		return Layer{}, ErrLayerNotFound
	}
	return layer, nil
}

// Active returns all registered layers in stable ID order.
func (r *Registry) Active() []Layer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.layers))
	for id := range r.layers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	layers := make([]Layer, 0, len(ids))
	for _, id := range ids {
		layers = append(layers, r.layers[id])
	}
	return layers
}

// Clear removes all layers. Used when a new route search must not render
// over stale corridor visuals.
func (r *Registry) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked {
		return ErrRegistryLocked
	}
	r.layers = make(map[string]Layer)
	return nil
}

// Lock refuses further mutations until Unlock. Called when a navigation
// session becomes active.
func (r *Registry) Lock() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = true
}

// Unlock re-enables mutations.
func (r *Registry) Unlock() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = false
}

// Locked reports whether mutations are currently refused.
func (r *Registry) Locked() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locked
}
