package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/imamik/srcdsctl/internal/config/wizard"
	"github.com/imamik/srcdsctl/internal/platform/cloud"
	"github.com/imamik/srcdsctl/internal/platform/providers"
	"github.com/imamik/srcdsctl/internal/util/keygen"
	"github.com/imamik/srcdsctl/internal/util/naming"
)

// Factory function variables for configure - can be replaced in tests.
var (
	// runWizard walks the operator through the settings questions.
	runWizard = wizard.Run

	// generateKey creates the SSH key pair on first run.
	generateKey = keygen.GenerateED25519
)

// Configure runs the settings wizard and persists the result. On first
// run it also generates the SSH key pair and registers it with the
// chosen provider.
func Configure(ctx context.Context, configPath string) error {
	env, err := loadEnv(configPath)
	if err != nil {
		return err
	}

	created, err := ensureKeyPair(env)
	if err != nil {
		return err
	}
	if created {
		fmt.Println("Generated a new SSH key pair for server access.")
		fmt.Printf("  %s\n", env.Paths.PrivateKeyFile())
		fmt.Println()
	}

	settings, err := runWizard(ctx, wizard.Options{
		Current: env.Settings,
		Regions: func(ctx context.Context, provider, token string) ([]cloud.Region, error) {
			p, err := newProvider(provider, token, env.Timeouts)
			if err != nil {
				return nil, err
			}
			return p.ListRegions(ctx)
		},
		Sizes: providers.RecommendedSizes,
	})
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	if err := settings.Save(env.SettingsPath()); err != nil {
		return err
	}
	env.Settings = settings

	registerSSHKey(ctx, env)
	printConfigureSuccess(env)

	return nil
}

// ensureKeyPair generates the SSH key pair unless one already exists.
// Reports whether a new pair was written.
func ensureKeyPair(env *Env) (bool, error) {
	if _, err := os.Stat(env.Paths.PrivateKeyFile()); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking for SSH key: %w", err)
	}

	pair, err := generateKey(naming.Tool)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(env.Paths.PrivateKeyFile(), pair.PrivateKey, 0o600); err != nil {
		return false, fmt.Errorf("writing private key: %w", err)
	}
	if err := os.WriteFile(env.Paths.PublicKeyFile(), pair.PublicKey, 0o644); err != nil {
		return false, fmt.Errorf("writing public key: %w", err)
	}
	return true, nil
}

// registerSSHKey uploads the public key to the configured provider so
// machines created from the console boot with it too. Failures are
// warnings only: create registers the key again before every machine.
func registerSSHKey(ctx context.Context, env *Env) {
	provider, err := env.Provider(env.Settings.Provider)
	if err != nil {
		fmt.Printf("Warning: SSH key not registered: %v\n", err)
		return
	}
	pub, _, err := env.KeyPair()
	if err != nil {
		fmt.Printf("Warning: SSH key not registered: %v\n", err)
		return
	}
	if _, err := provider.EnsureSSHKey(ctx, naming.SSHKeyName(), pub); err != nil {
		fmt.Printf("Warning: could not register the SSH key with %s: %v\n", env.Settings.Provider, err)
	}
}

// printConfigureSuccess prints the saved locations and next steps.
func printConfigureSuccess(env *Env) {
	s := env.Settings

	fmt.Println()
	fmt.Println("Configuration saved!")
	fmt.Println()
	fmt.Printf("  Settings: %s\n", env.SettingsPath())
	fmt.Printf("  Registry: %s\n", env.Store.Path())
	fmt.Println()

	fmt.Println("Defaults")
	fmt.Println("--------")
	fmt.Printf("  Provider:  %s\n", wizard.ProviderLabel(s.Provider))
	fmt.Printf("  Region:    %s\n", s.Region)
	fmt.Printf("  Size:      %s\n", s.Size)
	fmt.Printf("  Hostname:  %s\n", s.Hostname)
	fmt.Printf("  Start map: %s\n", s.StartMap)
	fmt.Printf("  Resources: %s\n", s.ResourcesDir)
	fmt.Println()

	fmt.Println("Next Steps")
	fmt.Println("----------")
	fmt.Printf("  1. Put your setup script at %s/scripts/setup.sh\n", s.ResourcesDir)
	fmt.Printf("     and server content under %s/includes/\n", s.ResourcesDir)
	fmt.Println()
	fmt.Println("  2. Create your first server:")
	fmt.Println("     srcdsctl create")
	fmt.Println()
}
