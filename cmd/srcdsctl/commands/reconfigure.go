package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/srcdsctl/cmd/srcdsctl/handlers"
)

// Reconfigure returns the command for resuming interrupted provisioning.
func Reconfigure() *cobra.Command {
	return &cobra.Command{
		Use:   "reconfigure <name>",
		Short: "Re-run provisioning on an existing server",
		Long: `Re-run provisioning from the server's recorded state.

This is the recovery path after a failed or interrupted create: the
bootstrap and overlay steps run again against the same machine with the
same credentials. No second machine is ever created.

It also serves to push a changed setup script to a healthy server.

Examples:
  # Resume a server stuck in a failed phase
  srcdsctl reconfigure tf2-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Reconfigure(cmd.Context(), configPath, args[0])
		},
	}
}
