package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/srcdsctl/cmd/srcdsctl/handlers"
)

// Create returns the command for provisioning game servers.
//
// A single create takes the given name or the next free name in the
// default series. With --count above one the name argument becomes the
// series prefix and the tool numbers the instances itself.
//
// Optional flags:
//
//	--count, -n:  number of servers to create (default 1)
//	--region:     override the configured region
//	--size:       override the configured size
//	--map:        override the configured start map
func Create() *cobra.Command {
	var (
		count    int
		region   string
		size     string
		startMap string
	)

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create one or more game servers",
		Long: `Create game servers on the configured provider.

Each server is created, bootstrapped over SSH, and loaded with the
content overlay from the resources directory. Progress is shown live on
a terminal; pass --no-input (or pipe the output) for plain logs.

Passwords are generated per server and printed as ready-to-paste
console strings once the server is up.

Examples:
  # One server with an auto-assigned name (tf2-01, tf2-02, ...)
  srcdsctl create

  # One server with a chosen name
  srcdsctl create match-server

  # A numbered batch: scrim-01 through scrim-04
  srcdsctl create scrim -n 4

  # Override the configured placement for this batch only
  srcdsctl create -n 2 --region fra1 --size large`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return handlers.Create(cmd.Context(), handlers.CreateOptions{
				ConfigPath:  configPath,
				Name:        name,
				Count:       count,
				Region:      region,
				Size:        size,
				StartMap:    startMap,
				Interactive: interactive(),
			})
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of servers to create")
	cmd.Flags().StringVar(&region, "region", "", "Region slug (default: configured region)")
	cmd.Flags().StringVar(&size, "size", "", "Size slug (default: configured size)")
	cmd.Flags().StringVar(&startMap, "map", "", "Start map (default: configured map)")

	return cmd
}
