package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/imamik/srcdsctl/internal/provisioning"
	"github.com/imamik/srcdsctl/internal/registry"
)

// CreateOptions carries the create command's arguments.
type CreateOptions struct {
	ConfigPath string

	// Name is the server name, or the series prefix when Count > 1.
	// Empty picks the next free name in the default series.
	Name  string
	Count int

	// Region, Size, and StartMap override the configured defaults when
	// non-empty.
	Region   string
	Size     string
	StartMap string

	// Interactive enables the progress TUI.
	Interactive bool
}

// Create provisions one server or a numbered batch.
func Create(ctx context.Context, opts CreateOptions) error {
	if opts.Count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", opts.Count)
	}

	env, err := loadEnv(opts.ConfigPath)
	if err != nil {
		return err
	}

	region := pick(opts.Region, env.Settings.Region)
	size := pick(opts.Size, env.Settings.Size)
	startMap := pick(opts.StartMap, env.Settings.StartMap)
	if region == "" || size == "" {
		return errors.New("no region or size configured; run 'srcdsctl configure' or pass --region and --size")
	}

	if opts.Count == 1 {
		return createOne(ctx, env, opts, region, size, startMap)
	}
	return createBatch(ctx, env, opts, region, size, startMap)
}

func createOne(ctx context.Context, env *Env, opts CreateOptions, region, size, startMap string) error {
	name := opts.Name
	if name == "" {
		names, err := env.Store.NextNames(defaultNamePrefix, 1)
		if err != nil {
			return err
		}
		name = names[0]
	}

	var inst *registry.Instance
	runErr := withProgress(ctx, env, opts.Interactive, "Provisioning "+name, func(ctx context.Context, p *provisioning.Provisioner) error {
		var err error
		inst, err = p.Create(ctx, provisioning.InstanceSpec{
			Name:     name,
			Region:   region,
			Size:     size,
			StartMap: startMap,
		})
		return err
	})

	if inst != nil {
		fmt.Println()
		printInstanceSummary(inst)
		if inst.Phase == registry.PhaseReady {
			fmt.Println()
			printConnectionInfo(inst)
		}
	}
	if runErr != nil {
		if inst != nil {
			return fmt.Errorf("provisioning %s failed (machine kept; retry with 'srcdsctl reconfigure %s' or remove with 'srcdsctl delete %s'): %w",
				name, name, name, runErr)
		}
		return fmt.Errorf("provisioning %s failed: %w", name, runErr)
	}
	return nil
}

func createBatch(ctx context.Context, env *Env, opts CreateOptions, region, size, startMap string) error {
	prefix := opts.Name
	if prefix == "" {
		prefix = defaultNamePrefix
	}

	var result *provisioning.BulkResult
	title := fmt.Sprintf("Provisioning %d servers (%s)", opts.Count, prefix)
	runErr := withProgress(ctx, env, opts.Interactive, title, func(ctx context.Context, p *provisioning.Provisioner) error {
		var err error
		result, err = p.BulkCreate(ctx, provisioning.BulkRequest{
			Prefix:   prefix,
			Count:    opts.Count,
			Region:   region,
			Size:     size,
			StartMap: startMap,
		})
		return err
	})

	if result != nil {
		printBatchSummary(env, result)
	}
	if runErr != nil {
		return fmt.Errorf("bulk create: %w", runErr)
	}
	if result != nil && len(result.Failed) > 0 {
		return fmt.Errorf("%d of %d servers failed", len(result.Failed), result.Planned)
	}
	return nil
}

// printBatchSummary prints per-server outcome lines followed by the
// connection strings of every server that came up.
func printBatchSummary(env *Env, result *provisioning.BulkResult) {
	fmt.Println()
	if result.Planned < result.Requested {
		fmt.Printf("Capacity allowed %d of the %d requested servers.\n", result.Planned, result.Requested)
	}
	fmt.Printf("%d created, %d ready, %d failed.\n", len(result.Created), len(result.Ready), len(result.Failed))
	fmt.Println()

	for _, name := range result.Created {
		inst, err := env.Store.GetByName(name)
		if err != nil {
			continue
		}
		printInstanceSummary(inst)
	}

	if len(result.Failed) > 0 {
		names := make([]string, 0, len(result.Failed))
		for name := range result.Failed {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Println()
		fmt.Println("Failed:")
		for _, name := range names {
			fmt.Printf("  %s: %v\n", name, result.Failed[name])
		}
	}

	if len(result.Ready) > 0 {
		fmt.Println()
		fmt.Println("Connection strings (print again with 'srcdsctl strings --all'):")
		for _, name := range result.Ready {
			inst, err := env.Store.GetByName(name)
			if err != nil {
				continue
			}
			fmt.Println()
			printConnectionInfo(inst)
		}
	}
}

// printInstanceSummary prints one name/address/phase line.
func printInstanceSummary(inst *registry.Instance) {
	ip := inst.PublicIP
	if ip == "" {
		ip = "-"
	}
	fmt.Printf("  %-20s %-15s %s\n", inst.Name, ip, inst.Phase)
}

// pick returns override when non-empty, fallback otherwise.
func pick(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
