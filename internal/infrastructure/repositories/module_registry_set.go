package repositories

import (
	domainRepos "github.com/rios0rios0/pinbump/internal/domain/repositories"
)

// ModuleRegistrySet is the ordered list of module registries. A URL belongs
// to the first registry that matches it.
type ModuleRegistrySet struct {
	registries []domainRepos.ModuleRegistry
}

// NewModuleRegistrySet creates a set with the given registries, in order.
func NewModuleRegistrySet(registries ...domainRepos.ModuleRegistry) *ModuleRegistrySet {
	return &ModuleRegistrySet{registries: registries}
}

// Find returns the first registry matching the URL, or nil.
func (r *ModuleRegistrySet) Find(url string) domainRepos.ModuleRegistry {
	for _, registry := range r.registries {
		if registry.Match(url) {
			return registry
		}
	}
	return nil
}

// Names returns the registry names, in order.
func (r *ModuleRegistrySet) Names() []string {
	names := make([]string, 0, len(r.registries))
	for _, registry := range r.registries {
		names = append(names, registry.Name())
	}
	return names
}
