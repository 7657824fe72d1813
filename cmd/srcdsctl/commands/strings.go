package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/srcdsctl/cmd/srcdsctl/handlers"
)

// Strings returns the command for printing connection strings.
//
// Optional flags:
//
//	--all:    print strings for every ready server
//	--export: also write them to connection_strings.txt in the state dir
func Strings() *cobra.Command {
	var (
		all    bool
		export bool
	)

	cmd := &cobra.Command{
		Use:   "strings [name]",
		Short: "Print ready-to-paste console connection strings",
		Long: `Print the console strings for joining, spectating, and RCON.

Each ready server gets three lines to paste into the game console: a
player connect with the server password, a SourceTV connect, and the
rcon_address/rcon_password pair.

Examples:
  # Strings for one server
  srcdsctl strings tf2-01

  # Strings for the fleet, also saved for handing out
  srcdsctl strings --all --export`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return handlers.Strings(cmd.Context(), configPath, name, all, export)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Print strings for every ready server")
	cmd.Flags().BoolVar(&export, "export", false, "Write the strings to connection_strings.txt in the state directory")

	return cmd
}
