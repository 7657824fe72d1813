package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/imamik/srcdsctl/internal/provisioning"
	"github.com/imamik/srcdsctl/internal/registry"
)

// exportFileName is the hand-out file written by Strings with export
// set. It lands in the state directory and holds passwords, hence the
// owner-only mode.
const exportFileName = "connection_strings.txt"

// Strings prints the console connection strings for one server, or for
// every ready server when all is set or no name is given.
func Strings(_ context.Context, configPath, name string, all, export bool) error {
	env, err := loadEnv(configPath)
	if err != nil {
		return err
	}

	var targets []*registry.Instance
	if all || name == "" {
		instances, err := env.Store.List()
		if err != nil {
			return err
		}
		for i := range instances {
			if instances[i].Phase == registry.PhaseReady {
				targets = append(targets, &instances[i])
			}
		}
		if len(targets) == 0 {
			fmt.Println("No ready servers.")
			return nil
		}
	} else {
		inst, err := resolveInstance(env.Store, name)
		if err != nil {
			return err
		}
		if inst.PublicIP == "" {
			return fmt.Errorf("%s has no public address yet (phase %s)", inst.Name, inst.Phase)
		}
		targets = append(targets, inst)
	}

	blocks := make([]string, 0, len(targets))
	for _, inst := range targets {
		blocks = append(blocks, connectionBlock(inst))
	}
	text := strings.Join(blocks, "\n")
	fmt.Print(text)

	if export {
		path := filepath.Join(env.Paths.Home, exportFileName)
		if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Printf("\nSaved to %s\n", path)
	}
	return nil
}

// connectionBlock renders one server's paste-ready console strings.
func connectionBlock(inst *registry.Instance) string {
	info := provisioning.Connection(inst)

	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", inst.Name)
	fmt.Fprintf(&b, "GAME: %s\n", info.Connect)
	fmt.Fprintf(&b, "STV:  %s\n", info.Spectator)
	fmt.Fprintf(&b, "RCON: %s\n", info.RCON)
	return b.String()
}

func printConnectionInfo(inst *registry.Instance) {
	fmt.Print(connectionBlock(inst))
}
