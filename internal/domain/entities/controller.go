package entities

import "github.com/spf13/cobra"

// ControllerBind holds the Cobra command metadata of a controller.
type ControllerBind struct {
	Use   string
	Short string
	Long  string
}

// Controller is a CLI subcommand.
type Controller interface {
	GetBind() ControllerBind
	Execute(cmd *cobra.Command, args []string)
	AddFlags(cmd *cobra.Command)
}
