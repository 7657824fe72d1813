package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/srcdsctl/cmd/srcdsctl/handlers"
)

// Restart returns the command for restarting the game process.
//
// Optional flags:
//
//	--all: restart every tracked server
func Restart() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "restart [name]",
		Short: "Restart the game server process",
		Long: `Restart the game container on a server.

Connected players are dropped and the server comes back on its start
map within a minute. Freshly reapplied content takes effect on restart.

Examples:
  srcdsctl restart tf2-01
  srcdsctl restart --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return handlers.Restart(cmd.Context(), configPath, name, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Restart every tracked server")

	return cmd
}
