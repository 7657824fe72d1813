// Package main is the entry point for the srcdsctl CLI.
//
// srcdsctl provisions and manages dedicated TF2 game servers on
// commodity cloud providers. One command takes a fresh cloud account
// from nothing to a running, password-protected server; the rest of
// the surface manages the fleet the tool created.
//
// Commands: configure, create, list, delete, reapply, reconfigure,
// logs, restart, run, ssh, strings. Run with no arguments for the
// interactive menu.
//
// For detailed usage information, run:
//
//	srcdsctl --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/srcdsctl/cmd/srcdsctl/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
