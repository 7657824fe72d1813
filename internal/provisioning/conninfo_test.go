package provisioning

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/imamik/srcdsctl/internal/registry"
)

func TestConnectionBuildsConsoleStrings(t *testing.T) {
	inst := &registry.Instance{
		PublicIP: "203.0.113.5",
		Secrets: registry.Secrets{
			ServerPassword:    "join-me",
			RCONPassword:      "relay-key",
			SpectatorPassword: "watch-me",
		},
	}

	info := Connection(inst)
	assert.Equal(t, `connect 203.0.113.5:27015; password "join-me"`, info.Connect)
	assert.Equal(t, `connect 203.0.113.5:27020; password "watch-me"`, info.Spectator)
	assert.Equal(t, `rcon_address 203.0.113.5:27015; rcon_password "relay-key"`, info.RCON)
}

func TestConnectionOmitsEmptyPasswordClauses(t *testing.T) {
	inst := &registry.Instance{
		PublicIP: "203.0.113.5",
		Secrets:  registry.Secrets{RCONPassword: "relay-key"},
	}

	info := Connection(inst)
	assert.Equal(t, "connect 203.0.113.5:27015", info.Connect)
	assert.Equal(t, "connect 203.0.113.5:27020", info.Spectator)
	assert.Equal(t, `rcon_address 203.0.113.5:27015; rcon_password "relay-key"`, info.RCON)
}
