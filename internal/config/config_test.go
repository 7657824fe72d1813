package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Empty(t, s.Provider)
	assert.Equal(t, "cp_badlands", s.StartMap)
	assert.Equal(t, "server_resources", s.ResourcesDir)
	assert.Equal(t, "srcdsctl server", s.Hostname)
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	in := &Settings{
		Provider: "digitalocean",
		Tokens:   map[string]string{"digitalocean": "dop_v1_secret"},
		Region:   "fra1",
		Size:     "s-2vcpu-4gb",
		Hostname: "Friday Fortress",
		StartMap: "pl_upward",
	}
	require.NoError(t, in.Save(path))

	// Settings hold tokens, so the file must be private.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "digitalocean", out.Provider)
	assert.Equal(t, "dop_v1_secret", out.Tokens["digitalocean"])
	assert.Equal(t, "fra1", out.Region)
	assert.Equal(t, "Friday Fortress", out.Hostname)
	assert.Equal(t, "pl_upward", out.StartMap)
	// Defaults fill what the file left out.
	assert.Equal(t, "server_resources", out.ResourcesDir)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: ec2\n"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown provider")
}

func TestSaveRejectsInvalidSettings(t *testing.T) {
	s := &Settings{Provider: "nope"}
	err := s.Save(filepath.Join(t.TempDir(), "config.yaml"))
	assert.ErrorContains(t, err, "unknown provider")
}

func TestTokenPrefersEnvironment(t *testing.T) {
	s := &Settings{Tokens: map[string]string{"linode": "from-file"}}

	assert.Equal(t, "from-file", s.Token("linode"))

	t.Setenv("LINODE_TOKEN", "from-env")
	assert.Equal(t, "from-env", s.Token("linode"))
}

func TestTokenUnconfigured(t *testing.T) {
	s := &Settings{}
	assert.Empty(t, s.Token("vultr"))
}

func TestTokenEnvVarNames(t *testing.T) {
	tests := []struct {
		provider string
		envVar   string
	}{
		{"digitalocean", "DIGITALOCEAN_TOKEN"},
		{"linode", "LINODE_TOKEN"},
		{"vultr", "VULTR_API_KEY"},
		{"hetzner", "HCLOUD_TOKEN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.envVar, TokenEnvVar(tt.provider))
	}
}

func TestPathsLayout(t *testing.T) {
	home := t.TempDir()
	p := Paths{Home: home}

	require.NoError(t, p.EnsureLayout())

	assert.Equal(t, filepath.Join(home, "config.yaml"), p.SettingsFile())
	assert.Equal(t, filepath.Join(home, "servers.json"), p.RegistryFile())
	assert.Equal(t, filepath.Join(home, "id_ed25519"), p.PrivateKeyFile())
	assert.Equal(t, filepath.Join(home, "id_ed25519.pub"), p.PublicKeyFile())

	info, err := os.Stat(p.LogsDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDefaultHomeHonorsOverride(t *testing.T) {
	t.Setenv("SRCDSCTL_HOME", "/tmp/custom-state")

	home, err := DefaultHome()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom-state", home)
}
