package entities

import (
	"go.uber.org/dig"
)

// RegisterProviders registers all entity providers with the DIG container.
// Settings are loaded per command from the --config flag, so none are registered.
func RegisterProviders(_ *dig.Container) error {
	return nil
}
