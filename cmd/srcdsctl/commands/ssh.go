package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/srcdsctl/cmd/srcdsctl/handlers"
)

// SSH returns the command for opening an interactive shell on a server.
func SSH() *cobra.Command {
	return &cobra.Command{
		Use:   "ssh <name>",
		Short: "Open an interactive SSH session on a server",
		Long: `Open an interactive shell on a server's host.

The system ssh binary is run with the tool's key and your terminal
attached, so the session behaves exactly like a hand-typed ssh.

Examples:
  srcdsctl ssh tf2-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.SSH(cmd.Context(), configPath, args[0])
		},
	}
}
