package commands

import (
	"go.uber.org/dig"
)

// RegisterProviders registers all command providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register command constructors
	constructors := []interface{}{
		NewGetUpdatesCommand,
		NewCreateCommitsCommand,
		NewCreatePullRequestCommand,
		NewAutoMergeCommand,
		NewRunCommand,
		NewLocalCommand,
	}
	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return err
		}
	}

	// Bind interfaces to implementations
	bindings := []interface{}{
		func(impl *GetUpdatesCommand) GetUpdates { return impl },
		func(impl *CreateCommitsCommand) CreateCommits { return impl },
		func(impl *CreatePullRequestCommand) CreatePullRequest { return impl },
		func(impl *AutoMergeCommand) AutoMerge { return impl },
		func(impl *RunCommand) Run { return impl },
		func(impl *LocalCommand) Local { return impl },
	}
	for _, binding := range bindings {
		if err := container.Provide(binding); err != nil {
			return err
		}
	}

	return nil
}
