package main

import (
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/pinbump/internal"
	"github.com/rios0rios0/pinbump/internal/infrastructure/controllers"
)

func buildRootCommand(localController *controllers.LocalController) *cobra.Command {
	//nolint:exhaustruct // Minimal Command initialization with required fields only
	cmd := &cobra.Command{
		Use:   "pinbump [path]",
		Short: "Keep pinned dependency versions of GitHub repositories up to date",
		Long: `A dependency updater for source files that pin module URLs
(deno.land, esm.sh, unpkg, jsDelivr, raw.githubusercontent.com) or carry
"@pinbump owner/name" version annotations.

Updates are committed through the GitHub API, one commit per dependency,
on a working branch proposed as a single pull request.

Usage modes:
  pinbump .              Update the GitHub repository of the local clone
  pinbump /path/to/repo  Update the GitHub repository of a specific clone
  pinbump run            Batch mode using a config file (cronjob)
  pinbump serve          Webhook receiver merging green pull requests`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			if len(args) == 0 {
				return command.Help()
			}
			localController.Execute(command, args)
			return nil
		},
	}

	controllers.AddGlobalFlags(cmd)
	localController.AddFlags(cmd)
	return cmd
}

func addSubcommands(rootCmd *cobra.Command, appContext *internal.AppInternal) {
	for _, controller := range appContext.GetControllers() {
		bind := controller.GetBind()
		ctrl := controller
		//nolint:exhaustruct // Minimal Command initialization with required fields only
		subCmd := &cobra.Command{
			Use:   bind.Use,
			Short: bind.Short,
			Long:  bind.Long,
			Run: func(command *cobra.Command, arguments []string) {
				ctrl.Execute(command, arguments)
			},
		}
		ctrl.AddFlags(subCmd)
		rootCmd.AddCommand(subCmd)
	}
}

func main() {
	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	logger.SetFormatter(&logger.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.DebugLevel)
	}

	container := newContainer()
	cobraRoot := buildRootCommand(injectLocalController(container))
	addSubcommands(cobraRoot, injectAppContext(container))

	if err := cobraRoot.Execute(); err != nil {
		logger.Fatalf("Error executing 'pinbump': %s", err)
	}
}
