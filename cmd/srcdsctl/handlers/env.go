// Package handlers implements the CLI command logic.
//
// Each handler loads the state directory, wires the configured provider
// and the provisioning engine, and prints results for humans. Commands
// in the commands package stay thin and delegate here.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/imamik/srcdsctl/internal/config"
	"github.com/imamik/srcdsctl/internal/overlay"
	"github.com/imamik/srcdsctl/internal/platform/cloud"
	"github.com/imamik/srcdsctl/internal/platform/providers"
	"github.com/imamik/srcdsctl/internal/provisioning"
	"github.com/imamik/srcdsctl/internal/registry"
	"github.com/imamik/srcdsctl/internal/ui/tui"
)

// defaultNamePrefix is the series new servers are numbered in when no
// name is given.
const defaultNamePrefix = "tf2"

// Factory function variables shared by handlers - can be replaced in tests.
var (
	// resolveHome locates the state directory.
	resolveHome = config.DefaultHome

	// loadSettings reads the settings file.
	loadSettings = config.Load

	// newProvider builds a cloud adapter.
	newProvider = providers.New

	// loadBundle validates the resources directory.
	loadBundle = overlay.Load

	// runTUI drives work under the progress UI.
	runTUI = tui.Run
)

// Env holds everything a handler needs: the state directory layout, the
// loaded settings, and the instance registry.
type Env struct {
	Paths    config.Paths
	Settings *config.Settings
	Store    *registry.Store
	Timeouts *config.Timeouts

	settingsPath string
}

// loadEnv resolves the state directory, creates its layout, and loads
// settings and registry. An explicit configPath overrides where the
// settings file lives; the rest of the state stays in the state
// directory either way.
func loadEnv(configPath string) (*Env, error) {
	home, err := resolveHome()
	if err != nil {
		return nil, err
	}
	paths := config.Paths{Home: home}
	if err := paths.EnsureLayout(); err != nil {
		return nil, err
	}

	settingsPath := paths.SettingsFile()
	if configPath != "" {
		settingsPath = configPath
	}
	settings, err := loadSettings(settingsPath)
	if err != nil {
		return nil, err
	}

	return &Env{
		Paths:        paths,
		Settings:     settings,
		Store:        registry.NewStore(paths.RegistryFile()),
		Timeouts:     config.LoadTimeouts(),
		settingsPath: settingsPath,
	}, nil
}

// SettingsPath returns where settings were loaded from and are saved to.
func (e *Env) SettingsPath() string { return e.settingsPath }

// Provider builds the adapter for the named provider, failing with
// guidance when nothing is configured or no token can be found.
func (e *Env) Provider(name string) (cloud.Provider, error) {
	if name == "" {
		return nil, errors.New("no provider configured; run 'srcdsctl configure' first")
	}
	token := e.Settings.Token(name)
	if token == "" {
		return nil, fmt.Errorf("no API token for %s; set %s or run 'srcdsctl configure'", name, config.TokenEnvVar(name))
	}
	return newProvider(name, token, e.Timeouts)
}

// KeyPair loads the tool's SSH key pair from the state directory.
func (e *Env) KeyPair() (publicKey string, privateKey []byte, err error) {
	pub, err := os.ReadFile(e.Paths.PublicKeyFile())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, errors.New("no SSH key found; run 'srcdsctl configure' first")
		}
		return "", nil, fmt.Errorf("reading public key: %w", err)
	}
	priv, err := os.ReadFile(e.Paths.PrivateKeyFile())
	if err != nil {
		return "", nil, fmt.Errorf("reading private key: %w", err)
	}
	return strings.TrimSpace(string(pub)), priv, nil
}

// provisionOptions validates the full provisioning wiring up front so
// configuration problems surface before any screen is taken over. The
// observer is left nil for the caller to fill.
func (e *Env) provisionOptions() (provisioning.Options, error) {
	provider, err := e.Provider(e.Settings.Provider)
	if err != nil {
		return provisioning.Options{}, err
	}
	bundle, err := loadBundle(e.Settings.ResourcesDir)
	if err != nil {
		return provisioning.Options{}, fmt.Errorf("resources directory not usable (run 'srcdsctl configure' to point at one): %w", err)
	}
	pub, priv, err := e.KeyPair()
	if err != nil {
		return provisioning.Options{}, err
	}
	return provisioning.Options{
		Provider:   provider,
		Store:      e.Store,
		Bundle:     bundle,
		Timeouts:   e.Timeouts,
		Hostname:   e.Settings.Hostname,
		PublicKey:  pub,
		PrivateKey: priv,
		LogsDir:    e.Paths.LogsDir(),
	}, nil
}

// Provisioner wires the provisioning engine with plain log output.
func (e *Env) Provisioner() (*provisioning.Provisioner, error) {
	opts, err := e.provisionOptions()
	if err != nil {
		return nil, err
	}
	return provisioning.New(opts)
}

// withProgress runs fn against a freshly wired provisioner, under the
// progress TUI when interactive and with plain logs otherwise.
func withProgress(ctx context.Context, env *Env, interactive bool, title string, fn func(context.Context, *provisioning.Provisioner) error) error {
	opts, err := env.provisionOptions()
	if err != nil {
		return err
	}
	if !interactive {
		p, err := provisioning.New(opts)
		if err != nil {
			return err
		}
		return fn(ctx, p)
	}
	return runTUI(title, func(obs provisioning.Observer) error {
		o := opts
		o.Observer = obs
		p, err := provisioning.New(o)
		if err != nil {
			return err
		}
		return fn(ctx, p)
	})
}

// resolveInstance finds a tracked instance by name.
func resolveInstance(store *registry.Store, name string) (*registry.Instance, error) {
	if name == "" {
		return nil, errors.New("a server name is required")
	}
	inst, err := store.GetByName(name)
	if errors.Is(err, registry.ErrInstanceNotFound) {
		return nil, fmt.Errorf("no server named %q; 'srcdsctl list' shows what exists", name)
	}
	return inst, err
}
