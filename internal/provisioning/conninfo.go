package provisioning

import (
	"fmt"

	"github.com/imamik/srcdsctl/internal/registry"
)

// Ports served by the game container. Players join on the game port;
// SourceTV spectators get their own.
const (
	GamePort = 27015
	STVPort  = 27020
)

// ConnectionInfo holds the console strings players and admins paste
// into the game.
type ConnectionInfo struct {
	Connect   string // join as a player
	Spectator string // watch through SourceTV
	RCON      string // authenticate the remote console
}

// Connection builds the console strings for an instance. Password
// clauses are omitted when the password is empty.
func Connection(inst *registry.Instance) ConnectionInfo {
	info := ConnectionInfo{
		Connect:   fmt.Sprintf("connect %s:%d", inst.PublicIP, GamePort),
		Spectator: fmt.Sprintf("connect %s:%d", inst.PublicIP, STVPort),
		RCON:      fmt.Sprintf("rcon_address %s:%d; rcon_password %q", inst.PublicIP, GamePort, inst.Secrets.RCONPassword),
	}
	if pw := inst.Secrets.ServerPassword; pw != "" {
		info.Connect += fmt.Sprintf("; password %q", pw)
	}
	if pw := inst.Secrets.SpectatorPassword; pw != "" {
		info.Spectator += fmt.Sprintf("; password %q", pw)
	}
	return info
}
