package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/srcdsctl/cmd/srcdsctl/handlers"
)

// Reapply returns the command for pushing the content overlay again.
//
// Optional flags:
//
//	--all: reapply on every tracked server
//	--dry-run: show the overlay plan without uploading anything
func Reapply() *cobra.Command {
	var (
		all    bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "reapply [name]",
		Short: "Push the includes/ overlay to a running server",
		Long: `Upload the local includes/ tree and apply it on the server.

Use this after editing maps, configs, or plugins in the resources
directory. The game process keeps running; most content is picked up on
the next map change, and 'srcdsctl restart' forces it immediately.

Examples:
  # Push updated content to one server
  srcdsctl reapply tf2-01

  # Roll the new content out to the whole fleet
  srcdsctl reapply --all

  # Preview what would be uploaded
  srcdsctl reapply --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return handlers.Reapply(cmd.Context(), configPath, name, all, dryRun)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Reapply on every tracked server")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the overlay plan without uploading anything")

	return cmd
}
