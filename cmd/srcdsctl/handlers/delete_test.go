package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/srcdsctl/internal/config"
	"github.com/imamik/srcdsctl/internal/platform/cloud"
	"github.com/imamik/srcdsctl/internal/registry"
)

// setupProvisionable builds a state directory complete enough to wire a
// provisioner: settings, key pair, and a resources directory.
func setupProvisionable(t *testing.T) string {
	t.Helper()
	home := testHome(t)

	resources := filepath.Join(home, "resources")
	writeSettings(t, home, &config.Settings{
		Provider:     "hetzner",
		Tokens:       map[string]string{"hetzner": "tok"},
		Region:       "nbg1",
		Size:         "small",
		ResourcesDir: resources,
	})

	env, err := loadEnv("")
	require.NoError(t, err)
	_, err = ensureKeyPair(env)
	require.NoError(t, err)

	scripts := filepath.Join(resources, "scripts")
	require.NoError(t, os.MkdirAll(scripts, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "setup.sh"),
		[]byte("#!/bin/bash\necho ${SERVER_HOSTNAME}\n"), 0o755))

	return home
}

func TestDeleteRefusesWithoutForceNonInteractive(t *testing.T) {
	home := testHome(t)
	seedInstance(t, home, registry.Instance{ID: "i-1", Name: "tf2-01", Phase: registry.PhaseReady})

	err := Delete(context.Background(), DeleteOptions{Name: "tf2-01"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")
}

func TestDeleteAllRefusesWithoutForceNonInteractive(t *testing.T) {
	home := testHome(t)
	seedInstance(t, home, registry.Instance{ID: "i-1", Name: "tf2-01", Phase: registry.PhaseReady})

	err := Delete(context.Background(), DeleteOptions{All: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")
}

func TestDeleteForcedRemovesInstance(t *testing.T) {
	saveAndRestoreFactories(t)
	home := setupProvisionable(t)
	seedInstance(t, home, registry.Instance{
		ID:       "i-1",
		Name:     "tf2-01",
		Provider: "hetzner",
		PublicIP: "203.0.113.9",
		Phase:    registry.PhaseReady,
	})

	newProvider = func(string, string, *config.Timeouts) (cloud.Provider, error) {
		return &fakeCloud{name: "hetzner"}, nil
	}

	var err error
	output := captureOutput(func() {
		err = Delete(context.Background(), DeleteOptions{Name: "tf2-01", Force: true})
	})
	require.NoError(t, err)
	assert.Contains(t, output, "Deleted tf2-01.")

	env, err := loadEnv("")
	require.NoError(t, err)
	_, err = env.Store.GetByName("tf2-01")
	assert.ErrorIs(t, err, registry.ErrInstanceNotFound)
}

func TestDeleteAllOnEmptyFleet(t *testing.T) {
	testHome(t)

	var err error
	output := captureOutput(func() {
		err = Delete(context.Background(), DeleteOptions{All: true, Force: true})
	})

	require.NoError(t, err)
	assert.Contains(t, output, "No servers yet")
}

func TestDeleteUnknownName(t *testing.T) {
	testHome(t)

	err := Delete(context.Background(), DeleteOptions{Name: "ghost", Force: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no server named "ghost"`)
}
