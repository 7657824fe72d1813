package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/srcdsctl/cmd/srcdsctl/handlers"
)

// Logs returns the command for fetching server logs.
//
// Optional flags:
//
//	--tail:  number of lines to fetch (default 200)
//	--setup: show the provisioning log instead of the game log
func Logs() *cobra.Command {
	var (
		tail  int
		setup bool
	)

	cmd := &cobra.Command{
		Use:   "logs <name>",
		Short: "Show recent game server output",
		Long: `Fetch the last lines of the game container's output over SSH.

With --setup the provisioning log is shown instead, which is where
bootstrap failures explain themselves.

Examples:
  # Last 200 lines of game output
  srcdsctl logs tf2-01

  # Dig into a bootstrap problem
  srcdsctl logs tf2-01 --setup --tail 500`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Logs(cmd.Context(), configPath, args[0], tail, setup)
		},
	}

	cmd.Flags().IntVar(&tail, "tail", 200, "Number of log lines to fetch")
	cmd.Flags().BoolVar(&setup, "setup", false, "Show the provisioning log instead")

	return cmd
}
