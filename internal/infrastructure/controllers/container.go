package controllers

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/pinbump/internal/domain/entities"
)

// RegisterProviders registers all controller providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register controller constructors
	constructors := []interface{}{
		NewRunController,
		NewLocalController,
		NewServeController,
		NewControllers,
	}
	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return err
		}
	}

	return nil
}

// NewControllers aggregates the subcommand controllers for the AppInternal.
// The local controller also backs the root command.
func NewControllers(
	runController *RunController,
	localController *LocalController,
	serveController *ServeController,
) *[]entities.Controller {
	return &[]entities.Controller{
		runController,
		localController,
		serveController,
	}
}
