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

// RunController handles the "run" subcommand (batch mode).
type RunController struct {
	command commands.Run
	exit    func(code int)
}

// NewRunController creates a new RunController.
func NewRunController(command commands.Run) *RunController {
	return &RunController{command: command, exit: os.Exit}
}

// GetBind returns the Cobra command metadata for the run controller.
func (it *RunController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "run [owner/name...]",
		Short: "Update the pinned dependencies of GitHub repositories",
		Long: `Scan GitHub repositories for outdated module URLs and annotated
version pins, commit one update per dependency on a working branch
and open or refresh a pull request.

Repositories come from the arguments or from the config file.
This is the main command intended to be used in a cronjob or CI job.`,
	}
}

// Execute runs the batch update mode.
func (it *RunController) Execute(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Error(err)
		it.exit(1)
		return
	}

	opts, err := readRunOptions(cmd)
	if err != nil {
		logger.Error(err)
		it.exit(1)
		return
	}
	opts.Repositories = args
	opts.Token = resolveToken(opts.Token, settings)

	logger.Info("Starting pinbump run...")
	if runErr := it.command.Execute(ctx, settings, opts); runErr != nil {
		if errors.Is(runErr, entities.ErrOutdated) {
			logger.Warn("Outdated dependencies found")
		} else {
			logger.Errorf("Run failed: %v", runErr)
		}
		it.exit(1)
	}
}

// AddFlags adds the run-specific flags to the given Cobra command.
func (it *RunController) AddFlags(cmd *cobra.Command) {
	addPipelineFlags(cmd)
}
