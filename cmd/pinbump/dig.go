package main

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/pinbump/internal"
	"github.com/rios0rios0/pinbump/internal/infrastructure/controllers"
)

func newContainer() *dig.Container {
	container := dig.New()

	// Register all providers
	if err := internal.RegisterProviders(container); err != nil {
		panic(err)
	}
	return container
}

func injectAppContext(container *dig.Container) *internal.AppInternal {
	var appInternal *internal.AppInternal
	if err := container.Invoke(func(ai *internal.AppInternal) {
		appInternal = ai
	}); err != nil {
		panic(err)
	}

	return appInternal
}

func injectLocalController(container *dig.Container) *controllers.LocalController {
	var localController *controllers.LocalController
	if err := container.Invoke(func(lc *controllers.LocalController) {
		localController = lc
	}); err != nil {
		panic(err)
	}

	return localController
}
