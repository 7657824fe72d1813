package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/srcdsctl/cmd/srcdsctl/handlers"
)

// Configure returns the command for the interactive settings wizard.
//
// The wizard walks through provider choice, API credentials, placement
// and game defaults, then writes the settings file. On first run it also
// generates the SSH key pair used for all instance access.
//
// Environment variables:
//
//	DIGITALOCEAN_TOKEN, LINODE_TOKEN, VULTR_API_KEY, HCLOUD_TOKEN:
//	provider API tokens; the environment always wins over the file
func Configure() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Set up the provider, credentials, and server defaults",
		Long: `Set up srcdsctl interactively.

The wizard asks for a cloud provider, an API token, a region and size,
and the game defaults used for new servers. Answers are written to the
settings file in the state directory (~/.srcdsctl unless SRCDSCTL_HOME
is set). The region list is fetched live, so a bad token fails here
rather than halfway through a create.

Tokens given via environment variables never need to be entered.

Examples:
  # First-time setup
  srcdsctl configure

  # Change the default region or size later
  srcdsctl configure`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Configure(cmd.Context(), configPath)
		},
	}
}
