package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/srcdsctl/cmd/srcdsctl/handlers"
)

// List returns the command for listing tracked instances.
func List() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tracked game servers",
		Long: `List every game server in the local registry.

The listing shows the lifecycle phase of each server. Servers stuck in
a failed phase can be resumed with 'srcdsctl reconfigure' or removed
with 'srcdsctl delete'.

Examples:
  srcdsctl list`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.List(cmd.Context(), configPath)
		},
	}
}
