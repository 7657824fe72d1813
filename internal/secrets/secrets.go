// Package secrets generates the per-instance credentials handed to the
// game server: the join password, the RCON password and the spectator
// password.
package secrets

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/imamik/srcdsctl/internal/registry"
)

// alphabet matches what the game accepts on the command line without
// quoting surprises.
const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

const (
	rconPasswordLength      = 16
	serverPasswordLength    = 12
	spectatorPasswordLength = 8
)

// Generator produces random credential strings.
type Generator interface {
	Password(n int) (string, error)
}

type randomGenerator struct{}

// NewGenerator returns a crypto/rand backed Generator.
func NewGenerator() Generator { return randomGenerator{} }

func (randomGenerator) Password(n int) (string, error) {
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", fmt.Errorf("reading randomness: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}

// NewInstanceSecrets generates the full credential set for one
// instance.
func NewInstanceSecrets(g Generator) (registry.Secrets, error) {
	rcon, err := g.Password(rconPasswordLength)
	if err != nil {
		return registry.Secrets{}, fmt.Errorf("generating rcon password: %w", err)
	}
	server, err := g.Password(serverPasswordLength)
	if err != nil {
		return registry.Secrets{}, fmt.Errorf("generating server password: %w", err)
	}
	spectator, err := g.Password(spectatorPasswordLength)
	if err != nil {
		return registry.Secrets{}, fmt.Errorf("generating spectator password: %w", err)
	}

	return registry.Secrets{
		ServerPassword:    server,
		RCONPassword:      rcon,
		SpectatorPassword: spectator,
	}, nil
}
