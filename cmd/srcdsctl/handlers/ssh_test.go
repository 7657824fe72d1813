package handlers

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/srcdsctl/internal/config"
	"github.com/imamik/srcdsctl/internal/registry"
)

func TestSSHArgs(t *testing.T) {
	env := &Env{Paths: config.Paths{Home: "/state"}}

	args := sshArgs(env, "203.0.113.9")

	assert.Equal(t, []string{
		"-i", filepath.Join("/state", "id_ed25519"),
		"-o", "StrictHostKeyChecking=accept-new",
		"root@203.0.113.9",
	}, args)
}

func TestSSHRequiresAddress(t *testing.T) {
	home := testHome(t)
	seedInstance(t, home, registry.Instance{
		ID:    "i-1",
		Name:  "tf2-01",
		Phase: registry.PhaseCreating,
	})

	err := SSH(context.Background(), "", "tf2-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no public address yet")
}

func TestSSHRunsSystemSSH(t *testing.T) {
	saveAndRestoreFactories(t)
	home := testHome(t)
	seedInstance(t, home, registry.Instance{
		ID:       "i-1",
		Name:     "tf2-01",
		PublicIP: "203.0.113.9",
		Phase:    registry.PhaseReady,
	})

	var gotArgs []string
	runSSH = func(_ context.Context, args []string) error {
		gotArgs = args
		return nil
	}

	var err error
	output := captureOutput(func() {
		err = SSH(context.Background(), "", "tf2-01")
	})

	require.NoError(t, err)
	assert.Contains(t, output, "Connecting to tf2-01")
	require.NotEmpty(t, gotArgs)
	assert.Equal(t, "root@203.0.113.9", gotArgs[len(gotArgs)-1])
	assert.Contains(t, gotArgs, filepath.Join(home, "id_ed25519"))
}
