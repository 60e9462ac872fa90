package repositories

import (
	"fmt"
	"sort"
	"strings"

	domainRepos "github.com/rios0rios0/pinbump/internal/domain/repositories"
)

// ProviderRegistry manages the registered forge API implementations.
type ProviderRegistry struct {
	providers map[string]domainRepos.RepositoryAPIFactory
}

// NewProviderRegistry creates an empty provider registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]domainRepos.RepositoryAPIFactory),
	}
}

// Register adds a provider factory under the given name (e.g. "github").
func (r *ProviderRegistry) Register(name string, factory domainRepos.RepositoryAPIFactory) {
	r.providers[name] = factory
}

// Get returns a client for the given provider, authenticated with the token.
func (r *ProviderRegistry) Get(name, token string) (domainRepos.RepositoryAPI, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return factory(token), nil
}

// Names returns the sorted list of registered provider names.
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
