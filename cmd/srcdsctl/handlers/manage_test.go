package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/srcdsctl/internal/config"
	"github.com/imamik/srcdsctl/internal/registry"
)

func TestReportFleetAllOK(t *testing.T) {
	var err error
	output := captureOutput(func() {
		err = reportFleet("Restart", 3, map[string]error{}, nil)
	})

	require.NoError(t, err)
	assert.Contains(t, output, "Restart: 3 ok, 0 failed.")
}

func TestReportFleetFailures(t *testing.T) {
	failed := map[string]error{
		"tf2-02": errors.New("connection refused"),
		"tf2-01": errors.New("no route to host"),
	}

	var err error
	output := captureOutput(func() {
		err = reportFleet("Restart", 3, failed, errors.New("tf2-01: no route to host"))
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "restart failed on 2 of 3 servers")
	assert.Contains(t, output, "Restart: 1 ok, 2 failed.")
	assert.Contains(t, output, "tf2-01: no route to host")
	assert.Contains(t, output, "tf2-02: connection refused")

	// Failures print sorted by name.
	assert.Less(t, strings.Index(output, "tf2-01"), strings.Index(output, "tf2-02"))
}

func TestReportFleetListFailure(t *testing.T) {
	listErr := errors.New("registry unreadable")
	err := reportFleet("Restart", 0, nil, listErr)
	assert.ErrorIs(t, err, listErr)
}

func TestFleetSizeEmptyPrintsHint(t *testing.T) {
	home := testHome(t)
	env := &Env{Store: registry.NewStore(filepath.Join(home, "servers.json"))}

	var (
		n   int
		err error
	)
	output := captureOutput(func() {
		n, err = fleetSize(env)
	})

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, output, "No servers yet")
}

func TestReapplyDryRunPrintsPlan(t *testing.T) {
	home := testHome(t)
	resources := filepath.Join(home, "resources")
	writeSettings(t, home, &config.Settings{
		Provider:     "hetzner",
		ResourcesDir: resources,
	})

	require.NoError(t, os.MkdirAll(filepath.Join(resources, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(resources, "scripts", "setup.sh"),
		[]byte("#!/bin/bash\n"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(resources, "includes", "cfg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(resources, "includes", "cfg", "server.cfg"),
		[]byte("hostname test\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(resources, "includes", "maps"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(resources, "includes", "maps", "pl_upward.bsp"),
		[]byte("bsp"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(resources, "includes", "notes.txt"),
		[]byte("scratch"), 0o644))

	var err error
	output := captureOutput(func() {
		err = Reapply(context.Background(), "", "", false, true)
	})

	require.NoError(t, err)
	assert.Contains(t, output, "Overlay plan for")
	assert.Contains(t, output, "/home/srcds/server/tf/cfg")
	assert.Contains(t, output, "server.cfg installed as srcdsctl.cfg")
	assert.Contains(t, output, "/home/srcds/server/tf/maps")
	assert.Contains(t, output, "notes.txt")
	assert.Contains(t, output, "2 files total. Nothing was uploaded.")
}

func TestReapplyDryRunValidatesName(t *testing.T) {
	testHome(t)

	err := Reapply(context.Background(), "", "ghost", false, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no server named")
}

func TestFleetSizeCounts(t *testing.T) {
	home := testHome(t)
	seedInstance(t, home, registry.Instance{ID: "i-1", Name: "tf2-01", Phase: registry.PhaseReady})
	seedInstance(t, home, registry.Instance{ID: "i-2", Name: "tf2-02", Phase: registry.PhaseFailed})

	env := &Env{Store: registry.NewStore(filepath.Join(home, "servers.json"))}

	n, err := fleetSize(env)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
