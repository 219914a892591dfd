package provider

import (
	"fmt"

	"NewsGenerator/internal/ports"
)

// Registry keeps a mapping from provider names to their implementations.
type Registry struct {
	providers map[string]ports.NewsProvider
	order     []string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[string]ports.NewsProvider{}}
}

// Register adds or replaces a provider. Registration order defines provider
// priority for the merged candidate ordering.
func (r *Registry) Register(p ports.NewsProvider) {
	if r.providers == nil {
		r.providers = map[string]ports.NewsProvider{}
	}
	if _, exists := r.providers[p.Name()]; !exists {
		r.order = append(r.order, p.Name())
	}
	r.providers[p.Name()] = p
}

// Resolve returns a provider by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.NewsProvider, error) {
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("provider %s is not registered", name)
}

// Names returns registered provider names in priority order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
