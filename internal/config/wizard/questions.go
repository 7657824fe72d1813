package wizard

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/imamik/srcdsctl/internal/config"
)

// startMapRegex validates map names: file stems like cp_badlands, no
// spaces or path separators.
var startMapRegex = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

// runProviderGroup prompts for the cloud provider.
func runProviderGroup(ctx context.Context, s *config.Settings) error {
	if s.Provider == "" {
		s.Provider = config.Providers[0]
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Cloud Provider").
				Description("Where new game servers are created").
				Options(ProviderOptions()...).
				Value(&s.Provider),
		).Title("Provider"),
	).RunWithContext(ctx)
}

// runTokenGroup prompts for the provider's API token. The token may stay
// empty when the provider's environment variable supplies it.
func runTokenGroup(ctx context.Context, s *config.Settings) error {
	envVar := config.TokenEnvVar(s.Provider)
	token := s.Tokens[s.Provider]

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API Token").
				Description(fmt.Sprintf("Stored owner-only in the state directory. Leave empty to rely on %s.", envVar)).
				EchoMode(huh.EchoModePassword).
				Value(&token).
				Validate(tokenValidator(envVar)),
		).Title("Credentials"),
	).RunWithContext(ctx)

	if err != nil {
		return err
	}

	token = strings.TrimSpace(token)
	if token != "" {
		s.Tokens[s.Provider] = token
	} else {
		delete(s.Tokens, s.Provider)
	}
	return nil
}

// runPlacementGroup prompts for region and size. Regions come live from
// the provider, so a bad token fails here rather than at create time.
func runPlacementGroup(ctx context.Context, s *config.Settings, regions RegionLister, sizes SizeLister) error {
	regionList, err := regions(ctx, s.Provider, s.Token(s.Provider))
	if err != nil {
		return fmt.Errorf("failed to list %s regions: %w", s.Provider, err)
	}
	if len(regionList) == 0 {
		return errNoRegions
	}

	sizeList := sizes(s.Provider)
	if len(sizeList) == 0 {
		return errNoSizes
	}

	// Keep current answers only while the provider still offers them.
	if !regionOffered(regionList, s.Region) {
		s.Region = regionList[0].Slug
	}
	if !sizeOffered(sizeList, s.Size) {
		s.Size = defaultSize(sizeList)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Region").
				Description("Datacenter for new instances").
				Options(RegionsToOptions(regionList)...).
				Value(&s.Region),
			huh.NewSelect[string]().
				Title("Server Size").
				Description("A 2 vCPU plan comfortably runs a 24-player server").
				Options(SizesToOptions(sizeList)...).
				Value(&s.Size),
		).Title("Placement"),
	).RunWithContext(ctx)
}

// runServerGroup prompts for the game server identity and content layout.
func runServerGroup(ctx context.Context, s *config.Settings) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server Hostname").
				Description("Shown in the in-game server browser").
				Placeholder("My TF2 Server").
				Value(&s.Hostname).
				Validate(validateHostname),
			huh.NewInput().
				Title("Start Map").
				Description("Map the server boots into").
				Placeholder("cp_badlands").
				Value(&s.StartMap).
				Validate(validateStartMap),
			huh.NewInput().
				Title("Resources Directory").
				Description("Contains scripts/setup.sh and the includes/ overlay").
				Placeholder("server_resources").
				Value(&s.ResourcesDir).
				Validate(validateResourcesDir),
		).Title("Game Server"),
	).RunWithContext(ctx)
}

// tokenValidator requires a token unless the environment variable covers
// the provider.
func tokenValidator(envVar string) func(string) error {
	return func(v string) error {
		if strings.TrimSpace(v) == "" && os.Getenv(envVar) == "" {
			return errTokenRequired
		}
		return nil
	}
}

// validateHostname validates the public server name.
func validateHostname(s string) error {
	if strings.TrimSpace(s) == "" {
		return errHostnameRequired
	}
	return nil
}

// validateStartMap validates the boot map name.
func validateStartMap(s string) error {
	if s == "" {
		return errStartMapRequired
	}
	if !startMapRegex.MatchString(s) {
		return errStartMapInvalid
	}
	return nil
}

// validateResourcesDir validates the overlay directory path.
func validateResourcesDir(s string) error {
	if strings.TrimSpace(s) == "" {
		return errResourcesDirRequired
	}
	return nil
}
