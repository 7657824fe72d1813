package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/srcdsctl/cmd/srcdsctl/handlers"
)

// Delete returns the command for destroying game servers.
//
// Optional flags:
//
//	--all:   delete every tracked server
//	--force: skip the confirmation prompt
func Delete() *cobra.Command {
	var (
		all   bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a game server and its cloud machine",
		Long: `Delete a game server.

The cloud machine is destroyed first and the registry entry removed
after. If the provider refuses the delete, the entry is kept with the
error recorded so the machine stays visible.

Examples:
  # Delete one server after confirming
  srcdsctl delete tf2-01

  # Delete everything, no questions
  srcdsctl delete --all --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return handlers.Delete(cmd.Context(), handlers.DeleteOptions{
				ConfigPath:  configPath,
				Name:        name,
				All:         all,
				Force:       force,
				Interactive: interactive(),
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Delete every tracked server")
	cmd.Flags().BoolVar(&force, "force", false, "Skip the confirmation prompt")

	return cmd
}
