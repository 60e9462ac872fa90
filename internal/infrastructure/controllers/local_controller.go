package controllers

import (
	"context"
	"errors"
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/pinbump/internal/domain/commands"
	"github.com/rios0rios0/pinbump/internal/domain/entities"
)

// LocalController handles the root command with a path argument (standalone local mode).
type LocalController struct {
	command commands.Local
	exit    func(code int)
}

// NewLocalController creates a new LocalController.
func NewLocalController(command commands.Local) *LocalController {
	return &LocalController{command: command, exit: os.Exit}
}

// GetBind returns the Cobra command metadata for the local controller.
func (it *LocalController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "local [path]",
		Short: "Update the pinned dependencies of a local clone",
		Long: `Read the GitHub repository of a local clone from its origin remote,
then update its pinned dependencies through the GitHub API.`,
	}
}

// Execute runs the local update mode.
func (it *LocalController) Execute(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	repoDir := "."
	if len(args) > 0 {
		repoDir = args[0]
	}

	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Error(err)
		it.exit(1)
		return
	}

	runOpts, err := readRunOptions(cmd)
	if err != nil {
		logger.Error(err)
		it.exit(1)
		return
	}

	if localErr := it.command.Execute(ctx, settings, commands.LocalOptions{
		RepoDir:    repoDir,
		RunOptions: runOpts,
	}); localErr != nil {
		if errors.Is(localErr, entities.ErrOutdated) {
			logger.Warn("Outdated dependencies found")
		} else {
			logger.Errorf("Local update failed: %v", localErr)
		}
		it.exit(1)
	}
}

// AddFlags adds the pipeline flags to the given Cobra command.
func (it *LocalController) AddFlags(cmd *cobra.Command) {
	addPipelineFlags(cmd)
}
