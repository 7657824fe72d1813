// Package providers maps configured provider names to their cloud
// adapters.
package providers

import (
	"fmt"

	"github.com/imamik/srcdsctl/internal/config"
	"github.com/imamik/srcdsctl/internal/platform/cloud"
	"github.com/imamik/srcdsctl/internal/platform/digitalocean"
	"github.com/imamik/srcdsctl/internal/platform/hetzner"
	"github.com/imamik/srcdsctl/internal/platform/linode"
	"github.com/imamik/srcdsctl/internal/platform/vultr"
)

// New builds the adapter for the named provider. Names match the
// entries of config.Providers.
func New(name, token string, timeouts *config.Timeouts) (cloud.Provider, error) {
	switch name {
	case "digitalocean":
		return digitalocean.New(token, timeouts), nil
	case "linode":
		return linode.New(token, timeouts), nil
	case "vultr":
		return vultr.New(token, timeouts), nil
	case "hetzner":
		return hetzner.New(token, timeouts), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", name)
	}
}

// RecommendedSizes returns the portable size menu for the named
// provider without needing credentials. Unknown names yield nil.
func RecommendedSizes(name string) []cloud.SizeOption {
	p, err := New(name, "", config.LoadTimeouts())
	if err != nil {
		return nil
	}
	return p.RecommendedSizes()
}
