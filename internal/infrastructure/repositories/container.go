package repositories

import (
	"go.uber.org/dig"

	ghRepo "github.com/rios0rios0/pinbump/internal/infrastructure/repositories/github"
	"github.com/rios0rios0/pinbump/internal/infrastructure/repositories/registries"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register provider registry with all forge API factories
	if err := container.Provide(func() *ProviderRegistry {
		reg := NewProviderRegistry()
		reg.Register(ghRepo.ProviderName, ghRepo.NewGitHubRepositoryAPI)
		return reg
	}); err != nil {
		return err
	}

	// Register module registries in dispatch order
	if err := container.Provide(func() *ModuleRegistrySet {
		return NewModuleRegistrySet(registries.NewDefaultRegistries(registries.NewFetcher())...)
	}); err != nil {
		return err
	}

	return nil
}
