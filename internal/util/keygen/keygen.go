// Package keygen generates SSH key pairs for instance access.
//
// Keys are ed25519, with the private key in OpenSSH PEM format and the
// public key as an authorized_keys line ready to register with a cloud
// provider.
package keygen

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"

	"golang.org/x/crypto/ssh"
)

// KeyPair holds a generated key in ready-to-write formats.
type KeyPair struct {
	// PrivateKey is the ed25519 private key in OpenSSH PEM format.
	PrivateKey []byte
	// PublicKey is the public key as a single authorized_keys line,
	// newline terminated.
	PublicKey []byte
}

// GenerateED25519 generates a new ed25519 key pair. The comment is embedded
// in the private key and appended to the authorized_keys line.
func GenerateED25519(comment string) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	privPEM := pem.EncodeToMemory(block)

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to derive SSH public key: %w", err)
	}
	pubLine := ssh.MarshalAuthorizedKey(sshPub)
	if comment != "" {
		pubLine = append(bytes.TrimRight(pubLine, "\n"), []byte(" "+comment+"\n")...)
	}

	return &KeyPair{
		PrivateKey: privPEM,
		PublicKey:  pubLine,
	}, nil
}
