package wizard

import (
	"context"
	"fmt"

	"github.com/imamik/srcdsctl/internal/config"
	"github.com/imamik/srcdsctl/internal/platform/cloud"
)

// RegionLister fetches the selectable regions for a provider once its
// token is known.
type RegionLister func(ctx context.Context, provider, token string) ([]cloud.Region, error)

// SizeLister returns the curated size table for a provider.
type SizeLister func(provider string) []cloud.SizeOption

// Options wires the wizard to the provider catalogs it presents.
type Options struct {
	// Current settings prefill every answer; the struct is not modified.
	Current *config.Settings
	Regions RegionLister
	Sizes   SizeLister
}

// Run walks the operator through provider, credentials, placement, and
// game server identity, returning the updated settings.
// The context is used for cancellation support (e.g., Ctrl+C).
func Run(ctx context.Context, opts Options) (*config.Settings, error) {
	s := *opts.Current
	s.Tokens = make(map[string]string, len(opts.Current.Tokens))
	for provider, token := range opts.Current.Tokens {
		s.Tokens[provider] = token
	}

	if err := runProviderGroup(ctx, &s); err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}

	if err := runTokenGroup(ctx, &s); err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}

	// Region list is fetched live, so this doubles as a token check.
	if err := runPlacementGroup(ctx, &s, opts.Regions, opts.Sizes); err != nil {
		return nil, fmt.Errorf("placement: %w", err)
	}

	if err := runServerGroup(ctx, &s); err != nil {
		return nil, fmt.Errorf("game server: %w", err)
	}

	return &s, nil
}
