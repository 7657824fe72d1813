package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/srcdsctl/internal/config"
	"github.com/imamik/srcdsctl/internal/platform/cloud"
	"github.com/imamik/srcdsctl/internal/registry"
)

// testHome points the state directory at a fresh temp dir.
func testHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SRCDSCTL_HOME", dir)
	return dir
}

// seedInstance inserts a registry row into the test state directory.
func seedInstance(t *testing.T, home string, inst registry.Instance) {
	t.Helper()
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = time.Now()
	}
	store := registry.NewStore(filepath.Join(home, "servers.json"))
	require.NoError(t, store.Insert(inst))
}

// writeSettings persists a settings file into the test state directory.
func writeSettings(t *testing.T, home string, s *config.Settings) {
	t.Helper()
	require.NoError(t, s.Save(filepath.Join(home, "config.yaml")))
}

// saveAndRestoreFactories snapshots every factory variable handlers use.
func saveAndRestoreFactories(t *testing.T) {
	t.Helper()
	origResolveHome := resolveHome
	origLoadSettings := loadSettings
	origNewProvider := newProvider
	origLoadBundle := loadBundle
	origRunTUI := runTUI
	origRunWizard := runWizard
	origGenerateKey := generateKey
	origRunSSH := runSSH

	t.Cleanup(func() {
		resolveHome = origResolveHome
		loadSettings = origLoadSettings
		newProvider = origNewProvider
		loadBundle = origLoadBundle
		runTUI = origRunTUI
		runWizard = origRunWizard
		generateKey = origGenerateKey
		runSSH = origRunSSH
	})
}

func captureOutput(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

// fakeCloud is a minimal cloud.Provider for handler tests.
type fakeCloud struct {
	name      string
	regions   []cloud.Region
	ensureErr error
}

func (f *fakeCloud) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeCloud) ListRegions(context.Context) ([]cloud.Region, error) {
	return f.regions, nil
}

func (f *fakeCloud) RecommendedSizes() []cloud.SizeOption { return nil }

func (f *fakeCloud) EnsureSSHKey(context.Context, string, string) (string, error) {
	return "key-1", f.ensureErr
}

func (f *fakeCloud) CreateServer(context.Context, cloud.CreateRequest) (*cloud.Server, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCloud) WaitForActiveIP(context.Context, string) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeCloud) DeleteServer(context.Context, string) error { return nil }

func (f *fakeCloud) CapacityRemaining(context.Context) (cloud.Capacity, error) {
	return cloud.Capacity{}, nil
}

func TestLoadEnvCreatesLayout(t *testing.T) {
	home := testHome(t)

	env, err := loadEnv("")
	require.NoError(t, err)

	assert.DirExists(t, home)
	assert.DirExists(t, filepath.Join(home, "logs"))
	assert.Equal(t, filepath.Join(home, "config.yaml"), env.SettingsPath())
	assert.Equal(t, filepath.Join(home, "servers.json"), env.Store.Path())

	// Missing settings file falls back to defaults.
	assert.Equal(t, "cp_badlands", env.Settings.StartMap)
	assert.Equal(t, "server_resources", env.Settings.ResourcesDir)
}

func TestLoadEnvConfigOverride(t *testing.T) {
	home := testHome(t)

	custom := filepath.Join(home, "elsewhere.yaml")
	s := &config.Settings{Provider: "vultr"}
	require.NoError(t, s.Save(custom))

	env, err := loadEnv(custom)
	require.NoError(t, err)
	assert.Equal(t, custom, env.SettingsPath())
	assert.Equal(t, "vultr", env.Settings.Provider)
}

func TestProviderRequiresConfiguration(t *testing.T) {
	testHome(t)
	t.Setenv("HCLOUD_TOKEN", "")

	env, err := loadEnv("")
	require.NoError(t, err)

	_, err = env.Provider("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "srcdsctl configure")

	_, err = env.Provider("hetzner")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HCLOUD_TOKEN")
}

func TestProviderUsesEnvironmentToken(t *testing.T) {
	testHome(t)
	t.Setenv("HCLOUD_TOKEN", "from-env")

	env, err := loadEnv("")
	require.NoError(t, err)

	p, err := env.Provider("hetzner")
	require.NoError(t, err)
	assert.Equal(t, "hetzner", p.Name())
}

func TestKeyPairMissing(t *testing.T) {
	testHome(t)

	env, err := loadEnv("")
	require.NoError(t, err)

	_, _, err = env.KeyPair()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "srcdsctl configure")
}

func TestResolveInstance(t *testing.T) {
	home := testHome(t)
	seedInstance(t, home, registry.Instance{
		ID:    "i-1",
		Name:  "tf2-01",
		Phase: registry.PhaseReady,
	})

	env, err := loadEnv("")
	require.NoError(t, err)

	inst, err := resolveInstance(env.Store, "tf2-01")
	require.NoError(t, err)
	assert.Equal(t, "i-1", inst.ID)

	_, err = resolveInstance(env.Store, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no server named "nope"`)

	_, err = resolveInstance(env.Store, "")
	require.Error(t, err)
}
