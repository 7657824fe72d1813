package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imamik/srcdsctl/cmd/srcdsctl/handlers"
)

// Run returns the command for executing a shell command on a server.
//
// Optional flags:
//
//	--all: run the command on every tracked server
func Run() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "run <name> -- <command>...",
		Short: "Run a shell command on a server over SSH",
		Long: `Run a shell command on a server's host and print the output.

The command runs as root on the machine hosting the game container. Use
-- to keep flags meant for the remote command away from srcdsctl.

Examples:
  # Check disk usage on one server
  srcdsctl run tf2-01 -- df -h

  # Inspect the container on every server
  srcdsctl run --all -- docker ps`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				return handlers.Run(cmd.Context(), configPath, "", strings.Join(args, " "), true)
			}
			if len(args) < 2 {
				return errors.New("need a server name and a command, e.g. 'srcdsctl run tf2-01 -- uptime'")
			}
			return handlers.Run(cmd.Context(), configPath, args[0], strings.Join(args[1:], " "), false)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Run on every tracked server")

	return cmd
}
