// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated
// to handler functions in the handlers package.
package commands

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/imamik/srcdsctl/cmd/srcdsctl/handlers"
	"github.com/imamik/srcdsctl/internal/log"
)

// Global flags, bound on the root command and read by every subcommand
// after parsing.
var (
	logLevel   string
	noInput    bool
	configPath string
)

// interactive reports whether prompts and the TUI may be used: stdout is
// a terminal and --no-input was not given.
func interactive() bool {
	return !noInput && isatty.IsTerminal(os.Stdout.Fd())
}

// Root returns the root command for the srcdsctl CLI.
//
// The root command serves as the entry point and parent for all
// subcommands. Invoked with no arguments on a terminal it opens the
// interactive menu.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "srcdsctl",
		Short: "Provision and manage TF2 game servers in the cloud",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			log.Init(logLevel, nil)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !interactive() {
				return cmd.Help()
			}
			return handlers.Menu(cmd.Context(), configPath)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&noInput, "no-input", false, "Disable prompts and the progress UI")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the settings file (default: $SRCDSCTL_HOME/config.yaml)")

	// Core commands
	cmd.AddCommand(Configure())
	cmd.AddCommand(Create())
	cmd.AddCommand(List())
	cmd.AddCommand(Delete())

	// Per-instance management
	cmd.AddCommand(Reapply())
	cmd.AddCommand(Reconfigure())
	cmd.AddCommand(Logs())
	cmd.AddCommand(Restart())
	cmd.AddCommand(Run())
	cmd.AddCommand(SSH())
	cmd.AddCommand(Strings())

	// Utility commands
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
