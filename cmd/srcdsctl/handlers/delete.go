package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// deleteAllPhrase is what the operator must type to wipe the fleet.
const deleteAllPhrase = "DELETE ALL"

// DeleteOptions carries the delete command's arguments.
type DeleteOptions struct {
	ConfigPath  string
	Name        string
	All         bool
	Force       bool
	Interactive bool
}

// Delete destroys one server, or the whole fleet with All set. Unless
// forced, the operator confirms first; wiping the fleet requires typing
// the confirmation phrase.
func Delete(ctx context.Context, opts DeleteOptions) error {
	env, err := loadEnv(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.All {
		return deleteAll(ctx, env, opts)
	}

	inst, err := resolveInstance(env.Store, opts.Name)
	if err != nil {
		return err
	}

	if !opts.Force {
		if !opts.Interactive {
			return fmt.Errorf("refusing to delete %s without --force", inst.Name)
		}
		ok, err := confirmDelete(ctx, fmt.Sprintf("Delete %s? The machine is destroyed and the registry entry removed.", inst.Name))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	p, err := env.Provisioner()
	if err != nil {
		return err
	}
	if err := p.Delete(ctx, inst.ID); err != nil {
		return fmt.Errorf("deleting %s: %w", inst.Name, err)
	}
	fmt.Printf("Deleted %s.\n", inst.Name)
	return nil
}

func deleteAll(ctx context.Context, env *Env, opts DeleteOptions) error {
	total, err := fleetSize(env)
	if err != nil || total == 0 {
		return err
	}

	if !opts.Force {
		if !opts.Interactive {
			return errors.New("refusing to delete every server without --force")
		}
		if err := confirmDeleteAll(ctx, total); err != nil {
			return err
		}
	}

	p, err := env.Provisioner()
	if err != nil {
		return err
	}
	failed, runErr := p.DeleteAll(ctx)
	return reportFleet("Delete", total, failed, runErr)
}

// confirmDelete asks a yes/no question, defaulting to no.
func confirmDelete(ctx context.Context, title string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Value(&ok),
		),
	).RunWithContext(ctx)
	return ok, err
}

// confirmDeleteAll requires the confirmation phrase to be typed out.
func confirmDeleteAll(ctx context.Context, total int) error {
	var answer string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("This destroys all %d servers. Type %q to continue.", total, deleteAllPhrase)).
				Value(&answer),
		),
	).RunWithContext(ctx)
	if err != nil {
		return err
	}
	if answer != deleteAllPhrase {
		return errors.New("aborted: confirmation phrase did not match")
	}
	return nil
}
