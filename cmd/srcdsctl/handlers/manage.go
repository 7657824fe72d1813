package handlers

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/imamik/srcdsctl/internal/overlay"
	"github.com/imamik/srcdsctl/internal/registry"
)

// Reconfigure re-runs provisioning on one server from its recorded
// state. This is the recovery path after a failed or interrupted create.
func Reconfigure(ctx context.Context, configPath, name string) error {
	env, err := loadEnv(configPath)
	if err != nil {
		return err
	}
	inst, err := resolveInstance(env.Store, name)
	if err != nil {
		return err
	}
	p, err := env.Provisioner()
	if err != nil {
		return err
	}

	if err := p.Reconfigure(ctx, inst.ID); err != nil {
		return fmt.Errorf("reconfiguring %s: %w", name, err)
	}

	final, err := env.Store.Get(inst.ID)
	if err != nil {
		return err
	}
	fmt.Println()
	printInstanceSummary(final)
	if final.Phase == registry.PhaseReady {
		fmt.Println()
		printConnectionInfo(final)
	}
	return nil
}

// Reapply pushes the includes/ overlay to one server or the fleet.
// With dryRun it only prints what the overlay would install.
func Reapply(ctx context.Context, configPath, name string, all, dryRun bool) error {
	env, err := loadEnv(configPath)
	if err != nil {
		return err
	}

	if dryRun {
		if name != "" {
			if _, err := resolveInstance(env.Store, name); err != nil {
				return err
			}
		}
		return printOverlayPlan(env)
	}

	p, err := env.Provisioner()
	if err != nil {
		return err
	}

	if all {
		total, err := fleetSize(env)
		if err != nil || total == 0 {
			return err
		}
		failed, runErr := p.ReapplyAll(ctx)
		return reportFleet("Reapply", total, failed, runErr)
	}

	inst, err := resolveInstance(env.Store, name)
	if err != nil {
		return err
	}
	if err := p.Reapply(ctx, inst.ID); err != nil {
		return fmt.Errorf("reapplying overlay on %s: %w", name, err)
	}
	fmt.Printf("Overlay applied on %s.\n", name)
	return nil
}

// Logs prints the tail of a server's game output, or of its
// provisioning log when setup is true.
func Logs(ctx context.Context, configPath, name string, lines int, setup bool) error {
	env, err := loadEnv(configPath)
	if err != nil {
		return err
	}
	inst, err := resolveInstance(env.Store, name)
	if err != nil {
		return err
	}
	p, err := env.Provisioner()
	if err != nil {
		return err
	}

	var out string
	if setup {
		out, err = p.SetupLog(ctx, inst.ID, lines)
	} else {
		out, err = p.Logs(ctx, inst.ID, lines)
	}
	if err != nil {
		return fmt.Errorf("fetching logs from %s: %w", name, err)
	}

	fmt.Print(out)
	if out != "" && !strings.HasSuffix(out, "\n") {
		fmt.Println()
	}
	return nil
}

// Restart restarts the game container on one server or the fleet.
func Restart(ctx context.Context, configPath, name string, all bool) error {
	env, err := loadEnv(configPath)
	if err != nil {
		return err
	}
	p, err := env.Provisioner()
	if err != nil {
		return err
	}

	if all {
		total, err := fleetSize(env)
		if err != nil || total == 0 {
			return err
		}
		failed, runErr := p.RestartAll(ctx)
		return reportFleet("Restart", total, failed, runErr)
	}

	inst, err := resolveInstance(env.Store, name)
	if err != nil {
		return err
	}
	if err := p.Restart(ctx, inst.ID); err != nil {
		return fmt.Errorf("restarting %s: %w", name, err)
	}
	fmt.Printf("Restarted %s.\n", name)
	return nil
}

// Run executes a shell command on one server or the fleet and prints
// the output.
func Run(ctx context.Context, configPath, name, command string, all bool) error {
	env, err := loadEnv(configPath)
	if err != nil {
		return err
	}
	p, err := env.Provisioner()
	if err != nil {
		return err
	}

	if all {
		total, err := fleetSize(env)
		if err != nil || total == 0 {
			return err
		}
		failed, runErr := p.RunAll(ctx, command)
		return reportFleet("Run", total, failed, runErr)
	}

	inst, err := resolveInstance(env.Store, name)
	if err != nil {
		return err
	}
	res, err := p.RunCommand(ctx, inst.ID, command)
	if err != nil {
		return fmt.Errorf("running command on %s: %w", name, err)
	}

	fmt.Print(res.Stdout)
	if res.Stderr != "" {
		fmt.Fprint(os.Stderr, res.Stderr)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("command exited with status %d on %s", res.ExitCode, name)
	}
	return nil
}

// printOverlayPlan shows what a reapply would install, without
// touching any server.
func printOverlayPlan(env *Env) error {
	bundle, err := loadBundle(env.Settings.ResourcesDir)
	if err != nil {
		return fmt.Errorf("resources directory not usable (run 'srcdsctl configure' to point at one): %w", err)
	}
	plan, err := bundle.Plan()
	if err != nil {
		return err
	}

	if len(plan.Categories) == 0 {
		fmt.Printf("No overlay payload: %s has no recognized content.\n", bundle.IncludesDir())
		return nil
	}

	fmt.Printf("Overlay plan for %s:\n", bundle.IncludesDir())
	for _, cat := range plan.Categories {
		note := fmt.Sprintf("%d files", cat.Files)
		if cat.RenamesBaseline {
			note += fmt.Sprintf(", %s installed as %s", overlay.BaselineConfig, overlay.OverrideConfig)
		}
		fmt.Printf("  %-8s -> %-30s %s\n", cat.Name, cat.Dest, note)
	}
	if len(plan.Skipped) > 0 {
		fmt.Printf("Ignored (no matching category): %s\n", strings.Join(plan.Skipped, ", "))
	}
	fmt.Printf("%d files total. Nothing was uploaded.\n", plan.TotalFiles)
	return nil
}

// fleetSize returns the tracked instance count, printing a friendly
// notice when there is nothing to operate on.
func fleetSize(env *Env) (int, error) {
	instances, err := env.Store.List()
	if err != nil {
		return 0, err
	}
	if len(instances) == 0 {
		fmt.Println("No servers yet. Create one with 'srcdsctl create'.")
	}
	return len(instances), nil
}

// reportFleet prints the outcome of a fleet-wide operation and returns
// an error when any server failed.
func reportFleet(what string, total int, failed map[string]error, err error) error {
	if err != nil && len(failed) == 0 {
		return err
	}

	fmt.Printf("%s: %d ok, %d failed.\n", what, total-len(failed), len(failed))
	if len(failed) == 0 {
		return nil
	}

	names := make([]string, 0, len(failed))
	for name := range failed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %v\n", name, failed[name])
	}
	return fmt.Errorf("%s failed on %d of %d servers", strings.ToLower(what), len(failed), total)
}
