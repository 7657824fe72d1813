package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/srcdsctl/internal/config"
	"github.com/imamik/srcdsctl/internal/provisioning"
	"github.com/imamik/srcdsctl/internal/registry"
)

func TestPick(t *testing.T) {
	assert.Equal(t, "override", pick("override", "fallback"))
	assert.Equal(t, "fallback", pick("", "fallback"))
	assert.Equal(t, "", pick("", ""))
}

func TestCreateRejectsZeroCount(t *testing.T) {
	err := Create(context.Background(), CreateOptions{Count: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count must be at least 1")
}

func TestCreateRequiresPlacement(t *testing.T) {
	testHome(t)

	err := Create(context.Background(), CreateOptions{Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no region or size configured")
}

func TestCreateValidatesWiringBeforeTUI(t *testing.T) {
	saveAndRestoreFactories(t)
	home := testHome(t)
	t.Setenv("HCLOUD_TOKEN", "")

	writeSettings(t, home, &config.Settings{
		Provider: "hetzner",
		Region:   "nbg1",
		Size:     "small",
	})

	tuiStarted := false
	runTUI = func(string, func(provisioning.Observer) error) error {
		tuiStarted = true
		return nil
	}

	err := Create(context.Background(), CreateOptions{Count: 1, Interactive: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HCLOUD_TOKEN")
	assert.False(t, tuiStarted, "configuration problems should surface before the TUI starts")
}

func TestPrintInstanceSummary(t *testing.T) {
	output := captureOutput(func() {
		printInstanceSummary(&registry.Instance{
			Name:     "tf2-01",
			PublicIP: "203.0.113.9",
			Phase:    registry.PhaseReady,
		})
		printInstanceSummary(&registry.Instance{
			Name:  "tf2-02",
			Phase: registry.PhaseCreating,
		})
	})

	assert.Contains(t, output, "tf2-01")
	assert.Contains(t, output, "203.0.113.9")
	assert.Contains(t, output, "ready")
	assert.Contains(t, output, "tf2-02")
	assert.Contains(t, output, "-")
}

func TestPrintBatchSummary(t *testing.T) {
	home := testHome(t)
	seedInstance(t, home, registry.Instance{
		ID:       "i-1",
		Name:     "scrim-01",
		PublicIP: "203.0.113.4",
		Phase:    registry.PhaseReady,
		Secrets: registry.Secrets{
			ServerPassword:    "join123",
			RCONPassword:      "rcon123",
			SpectatorPassword: "stv123",
		},
	})
	seedInstance(t, home, registry.Instance{
		ID:          "i-2",
		Name:        "scrim-02",
		PublicIP:    "203.0.113.5",
		Phase:       registry.PhaseFailed,
		FailedPhase: registry.PhaseBootstrapping,
	})

	env, err := loadEnv("")
	require.NoError(t, err)

	result := &provisioning.BulkResult{
		Requested: 3,
		Planned:   2,
		Created:   []string{"scrim-01", "scrim-02"},
		Ready:     []string{"scrim-01"},
		Failed:    map[string]error{"scrim-02": assert.AnError},
	}

	output := captureOutput(func() {
		printBatchSummary(env, result)
	})

	assert.Contains(t, output, "Capacity allowed 2 of the 3 requested servers.")
	assert.Contains(t, output, "2 created, 1 ready, 1 failed.")
	assert.Contains(t, output, "scrim-01")
	assert.Contains(t, output, "scrim-02")
	assert.Contains(t, output, "Failed:")
	assert.Contains(t, output, "GAME: connect 203.0.113.4:27015")
	assert.Contains(t, output, `password "join123"`)
}
