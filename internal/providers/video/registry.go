package video

import (
	"fmt"
	"strings"
	"sync"
)

// Registry maps provider identifiers to adapters. It is constructed at
// startup and injected into the router; there is no package-level registry.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry builds a registry from the given adapters, keyed by Name().
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds or replaces an adapter.
func (r *Registry) Register(a Adapter) {
	name := strings.ToLower(strings.TrimSpace(a.Name()))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[name] = a
}

// Get returns the adapter for a provider identifier.
func (r *Registry) Get(name string) (Adapter, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	a, ok := r.adapters[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown video provider: %s", name)
	}
	return a, nil
}
