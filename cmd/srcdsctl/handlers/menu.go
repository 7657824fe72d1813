package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

// Menu runs the interactive top-level menu. It loops until the operator
// quits; action errors are printed and the menu continues. Aborting a
// prompt with esc or ctrl-c steps back rather than failing.
func Menu(ctx context.Context, configPath string) error {
	for {
		choice, err := menuSelect(ctx, "srcdsctl", []menuItem{
			{"Configure provider and defaults", "configure"},
			{"Create servers", "create"},
			{"Manage a server", "manage"},
			{"List servers", "list"},
			{"Bulk operations", "bulk"},
			{"Quit", "quit"},
		})
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}

		var actionErr error
		switch choice {
		case "configure":
			actionErr = Configure(ctx, configPath)
		case "create":
			actionErr = menuCreate(ctx, configPath)
		case "manage":
			actionErr = menuManage(ctx, configPath)
		case "list":
			actionErr = List(ctx, configPath)
		case "bulk":
			actionErr = menuBulk(ctx, configPath)
		case "quit":
			return nil
		}
		if actionErr != nil {
			if !errors.Is(actionErr, huh.ErrUserAborted) {
				fmt.Printf("Error: %v\n", actionErr)
			}
		}
		fmt.Println()
	}
}

type menuItem struct {
	label string
	value string
}

func menuSelect(ctx context.Context, title string, items []menuItem) (string, error) {
	options := make([]huh.Option[string], 0, len(items))
	for _, it := range items {
		options = append(options, huh.NewOption(it.label, it.value))
	}

	var choice string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(options...).
				Value(&choice),
		),
	).RunWithContext(ctx)
	return choice, err
}

// menuCreate asks for a series prefix and count, then provisions with
// the configured defaults. Even a single server gets a numbered name so
// later batches continue the series.
func menuCreate(ctx context.Context, configPath string) error {
	prefix := defaultNamePrefix
	countText := "1"

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name prefix").
				Description("Servers are numbered prefix-01, prefix-02, ...").
				Value(&prefix).
				Validate(validatePrefix),
			huh.NewInput().
				Title("How many servers?").
				Value(&countText).
				Validate(validateCount),
		).Title("Create"),
	).RunWithContext(ctx)
	if err != nil {
		return err
	}

	prefix = strings.TrimSpace(prefix)
	count, _ := strconv.Atoi(strings.TrimSpace(countText))

	opts := CreateOptions{
		ConfigPath:  configPath,
		Name:        prefix,
		Count:       count,
		Interactive: true,
	}
	if count == 1 {
		env, err := loadEnv(configPath)
		if err != nil {
			return err
		}
		names, err := env.Store.NextNames(prefix, 1)
		if err != nil {
			return err
		}
		opts.Name = names[0]
	}
	return Create(ctx, opts)
}

// menuManage picks a server and loops over per-server actions.
func menuManage(ctx context.Context, configPath string) error {
	env, err := loadEnv(configPath)
	if err != nil {
		return err
	}
	name, err := pickServer(ctx, env)
	if err != nil || name == "" {
		return err
	}

	for {
		action, err := menuSelect(ctx, "Manage "+name, []menuItem{
			{"Show logs", "logs"},
			{"Show setup log", "setup-log"},
			{"Restart", "restart"},
			{"Run a command", "run"},
			{"Reconfigure", "reconfigure"},
			{"Reapply overlay", "reapply"},
			{"Open SSH session", "ssh"},
			{"Connection strings", "strings"},
			{"Delete", "delete"},
			{"Back", "back"},
		})
		if err != nil {
			return err
		}

		var actionErr error
		switch action {
		case "logs":
			actionErr = Logs(ctx, configPath, name, 200, false)
		case "setup-log":
			actionErr = Logs(ctx, configPath, name, 200, true)
		case "restart":
			actionErr = Restart(ctx, configPath, name, false)
		case "run":
			actionErr = menuRunCommand(ctx, configPath, name, false)
		case "reconfigure":
			actionErr = Reconfigure(ctx, configPath, name)
		case "reapply":
			actionErr = Reapply(ctx, configPath, name, false, false)
		case "ssh":
			actionErr = SSH(ctx, configPath, name)
		case "strings":
			actionErr = Strings(ctx, configPath, name, false, false)
		case "delete":
			actionErr = Delete(ctx, DeleteOptions{ConfigPath: configPath, Name: name, Interactive: true})
			if actionErr == nil {
				if _, err := env.Store.GetByName(name); err != nil {
					return nil
				}
			}
		case "back":
			return nil
		}
		if actionErr != nil {
			if !errors.Is(actionErr, huh.ErrUserAborted) {
				fmt.Printf("Error: %v\n", actionErr)
			}
		}
		fmt.Println()
	}
}

// menuBulk loops over fleet-wide actions.
func menuBulk(ctx context.Context, configPath string) error {
	for {
		action, err := menuSelect(ctx, "Bulk operations", []menuItem{
			{"Restart all", "restart"},
			{"Run a command on all", "run"},
			{"Show all connection strings", "strings"},
			{"Export connection strings", "export"},
			{"Reapply overlay on all", "reapply"},
			{"Delete all", "delete"},
			{"Back", "back"},
		})
		if err != nil {
			return err
		}

		var actionErr error
		switch action {
		case "restart":
			actionErr = Restart(ctx, configPath, "", true)
		case "run":
			actionErr = menuRunCommand(ctx, configPath, "", true)
		case "strings":
			actionErr = Strings(ctx, configPath, "", true, false)
		case "export":
			actionErr = Strings(ctx, configPath, "", true, true)
		case "reapply":
			actionErr = Reapply(ctx, configPath, "", true, false)
		case "delete":
			actionErr = Delete(ctx, DeleteOptions{ConfigPath: configPath, All: true, Interactive: true})
		case "back":
			return nil
		}
		if actionErr != nil {
			if !errors.Is(actionErr, huh.ErrUserAborted) {
				fmt.Printf("Error: %v\n", actionErr)
			}
		}
		fmt.Println()
	}
}

// pickServer asks which tracked server to manage. Empty means there is
// nothing to pick.
func pickServer(ctx context.Context, env *Env) (string, error) {
	instances, err := env.Store.List()
	if err != nil {
		return "", err
	}
	if len(instances) == 0 {
		fmt.Println("No servers yet. Create one with 'srcdsctl create'.")
		return "", nil
	}

	options := make([]huh.Option[string], 0, len(instances))
	for i := range instances {
		inst := &instances[i]
		label := fmt.Sprintf("%s (%s)", inst.Name, inst.Phase)
		if inst.PublicIP != "" {
			label = fmt.Sprintf("%s (%s, %s)", inst.Name, inst.PublicIP, inst.Phase)
		}
		options = append(options, huh.NewOption(label, inst.Name))
	}

	var choice string
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which server?").
				Options(options...).
				Value(&choice),
		),
	).RunWithContext(ctx)
	return choice, err
}

// menuRunCommand asks for a command line and runs it.
func menuRunCommand(ctx context.Context, configPath, name string, all bool) error {
	var command string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Command").
				Description("Runs as root on the server host").
				Placeholder("docker ps").
				Value(&command).
				Validate(validateCommand),
		),
	).RunWithContext(ctx)
	if err != nil {
		return err
	}
	return Run(ctx, configPath, name, strings.TrimSpace(command), all)
}

func validatePrefix(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("a name is required")
	}
	return nil
}

func validateCount(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return errors.New("enter a number of 1 or more")
	}
	return nil
}

func validateCommand(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("a command is required")
	}
	return nil
}
