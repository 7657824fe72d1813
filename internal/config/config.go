// Package config holds the tool's settings file, filesystem layout, and
// timeout table.
//
// Everything the tool persists lives under a single state directory,
// ~/.srcdsctl by default: the settings file, the instance registry, the
// SSH key pair, and downloaded setup logs. Server content (the setup
// script and overlay payload) lives in a separate resources directory
// checked into whatever repo the operator keeps their server files in.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Providers lists the supported cloud providers in menu order.
var Providers = []string{"digitalocean", "linode", "vultr", "hetzner"}

// tokenEnv maps a provider to the conventional environment variable for
// its API token. The environment always wins over the settings file.
var tokenEnv = map[string]string{
	"digitalocean": "DIGITALOCEAN_TOKEN",
	"linode":       "LINODE_TOKEN",
	"vultr":        "VULTR_API_KEY",
	"hetzner":      "HCLOUD_TOKEN",
}

// Settings is the persisted configuration, stored as YAML in the state
// directory.
type Settings struct {
	// Provider is the default provider for new instances.
	Provider string `yaml:"provider"`
	// Tokens holds per-provider API tokens. Prefer the environment
	// variables; the file is for machines where that is impractical.
	Tokens map[string]string `yaml:"tokens,omitempty"`
	// Region and Size are the defaults offered when creating instances.
	Region string `yaml:"region,omitempty"`
	Size   string `yaml:"size,omitempty"`
	// Hostname is the default public server name, shown in the in-game
	// server browser.
	Hostname string `yaml:"hostname,omitempty"`
	// StartMap is the map the server boots into.
	StartMap string `yaml:"start_map,omitempty"`
	// ResourcesDir contains scripts/setup.sh and the includes/ overlay.
	ResourcesDir string `yaml:"resources_dir,omitempty"`
}

// ApplyDefaults fills unset fields with their defaults.
func (s *Settings) ApplyDefaults() {
	if s.Hostname == "" {
		s.Hostname = "srcdsctl server"
	}
	if s.StartMap == "" {
		s.StartMap = "cp_badlands"
	}
	if s.ResourcesDir == "" {
		s.ResourcesDir = "server_resources"
	}
}

// Validate checks the settings for obvious misconfiguration.
func (s *Settings) Validate() error {
	if s.Provider != "" && !slices.Contains(Providers, s.Provider) {
		return fmt.Errorf("unknown provider %q (supported: %v)", s.Provider, Providers)
	}
	for p := range s.Tokens {
		if !slices.Contains(Providers, p) {
			return fmt.Errorf("token for unknown provider %q", p)
		}
	}
	return nil
}

// Token returns the API token for a provider, preferring its environment
// variable over the settings file. Empty means unconfigured.
func (s *Settings) Token(provider string) string {
	if env, ok := tokenEnv[provider]; ok {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return s.Tokens[provider]
}

// TokenEnvVar returns the environment variable consulted for a provider's
// token, for use in error messages and prompts.
func TokenEnvVar(provider string) string {
	return tokenEnv[provider]
}

// Load reads and validates the settings file. A missing file yields
// default settings rather than an error, so first runs work before
// `configure` has been executed.
func Load(path string) (*Settings, error) {
	var s Settings

	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		if os.IsNotExist(err) {
			s.ApplyDefaults()
			return &s, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &s, nil
}

// Save writes the settings file with owner-only permissions, creating the
// parent directory if needed. Tokens may be present, hence 0600.
func (s *Settings) Save(path string) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid settings: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
