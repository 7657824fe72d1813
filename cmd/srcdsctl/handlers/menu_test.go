package handlers

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/srcdsctl/internal/registry"
)

func TestMenuValidators(t *testing.T) {
	assert.NoError(t, validatePrefix("tf2"))
	assert.Error(t, validatePrefix("   "))

	assert.NoError(t, validateCount("1"))
	assert.NoError(t, validateCount(" 12 "))
	assert.Error(t, validateCount("0"))
	assert.Error(t, validateCount("-3"))
	assert.Error(t, validateCount("many"))

	assert.NoError(t, validateCommand("docker ps"))
	assert.Error(t, validateCommand("  "))
}

func TestPickServerEmptyFleet(t *testing.T) {
	home := testHome(t)
	env := &Env{Store: registry.NewStore(filepath.Join(home, "servers.json"))}

	var (
		name string
		err  error
	)
	output := captureOutput(func() {
		name, err = pickServer(context.Background(), env)
	})

	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Contains(t, output, "No servers yet")
}
