package wizard

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/imamik/srcdsctl/internal/config"
	"github.com/imamik/srcdsctl/internal/platform/cloud"
)

// providerLabels maps provider identifiers to display names.
var providerLabels = map[string]string{
	"digitalocean": "DigitalOcean",
	"linode":       "Linode",
	"vultr":        "Vultr",
	"hetzner":      "Hetzner Cloud",
}

// ProviderLabel returns the display name for a provider identifier.
func ProviderLabel(provider string) string {
	if label, ok := providerLabels[provider]; ok {
		return label
	}
	return provider
}

// ProviderOptions converts the supported provider list to huh options.
func ProviderOptions() []huh.Option[string] {
	options := make([]huh.Option[string], len(config.Providers))
	for i, p := range config.Providers {
		options[i] = huh.NewOption(fmt.Sprintf("%s (%s)", ProviderLabel(p), p), p)
	}
	return options
}

// RegionsToOptions converts a fetched region list to huh options.
func RegionsToOptions(regions []cloud.Region) []huh.Option[string] {
	options := make([]huh.Option[string], len(regions))
	for i, r := range regions {
		label := r.Slug
		if r.Name != "" {
			label = fmt.Sprintf("%s - %s", r.Slug, r.Name)
		}
		options[i] = huh.NewOption(label, r.Slug)
	}
	return options
}

// SizesToOptions converts a provider size table to huh options. The
// option value is the provider plan slug.
func SizesToOptions(sizes []cloud.SizeOption) []huh.Option[string] {
	options := make([]huh.Option[string], len(sizes))
	for i, s := range sizes {
		label := fmt.Sprintf("%s (%s)", s.Key, s.Slug)
		if s.Label != "" {
			label = fmt.Sprintf("%s (%s) - %s", s.Key, s.Slug, s.Label)
		}
		options[i] = huh.NewOption(label, s.Slug)
	}
	return options
}

// regionOffered reports whether slug is in the fetched region list.
func regionOffered(regions []cloud.Region, slug string) bool {
	for _, r := range regions {
		if r.Slug == slug {
			return true
		}
	}
	return false
}

// sizeOffered reports whether slug is in the provider size table.
func sizeOffered(sizes []cloud.SizeOption, slug string) bool {
	for _, s := range sizes {
		if s.Slug == slug {
			return true
		}
	}
	return false
}

// defaultSize picks the medium plan when available, usually the second
// entry of the table.
func defaultSize(sizes []cloud.SizeOption) string {
	if len(sizes) > 1 {
		return sizes[1].Slug
	}
	return sizes[0].Slug
}
