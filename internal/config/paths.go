package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths resolves file locations inside the state directory.
type Paths struct {
	Home string
}

// DefaultHome returns the state directory: $SRCDSCTL_HOME if set,
// otherwise ~/.srcdsctl.
func DefaultHome() (string, error) {
	if dir := os.Getenv("SRCDSCTL_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".srcdsctl"), nil
}

func (p Paths) SettingsFile() string {
	return filepath.Join(p.Home, "config.yaml")
}

func (p Paths) RegistryFile() string {
	return filepath.Join(p.Home, "servers.json")
}

func (p Paths) PrivateKeyFile() string {
	return filepath.Join(p.Home, "id_ed25519")
}

func (p Paths) PublicKeyFile() string {
	return filepath.Join(p.Home, "id_ed25519.pub")
}

func (p Paths) LogsDir() string {
	return filepath.Join(p.Home, "logs")
}

// EnsureLayout creates the state directory tree. The directory is
// owner-only since it holds the SSH private key and tokens.
func (p Paths) EnsureLayout() error {
	if err := os.MkdirAll(p.Home, 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.MkdirAll(p.LogsDir(), 0o700); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	return nil
}
