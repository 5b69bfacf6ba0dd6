package providers

import (
	"fmt"
	"slices"
	"strings"
)

// Registry maps provider names to the OCR engines available to a session.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
	}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds a provider, replacing any with the same name.
func (r *Registry) Register(provider Provider) {
	r.providers[strings.ToLower(provider.Name())] = provider
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (Provider, error) {
	provider, exists := r.providers[strings.ToLower(name)]
	if !exists {
		return nil, fmt.Errorf("provider %s not found (available: %s)", name, strings.Join(r.List(), ", "))
	}
	return provider, nil
}

// List returns the registered provider names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *Registry) HasProvider(name string) bool {
	_, exists := r.providers[strings.ToLower(name)]
	return exists
}
