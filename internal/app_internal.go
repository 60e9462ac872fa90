package internal

import "github.com/rios0rios0/pinbump/internal/domain/entities"

// AppInternal holds the controllers exposed as subcommands.
type AppInternal struct {
	controllers []entities.Controller
}

// NewAppInternal creates a new AppInternal.
func NewAppInternal(controllers *[]entities.Controller) *AppInternal {
	return &AppInternal{controllers: *controllers}
}

// GetControllers returns the controllers in registration order.
func (it *AppInternal) GetControllers() []entities.Controller {
	return it.controllers
}
