package wizard

import "errors"

// Validation errors for the interactive wizard.
var (
	errTokenRequired        = errors.New("an API token is required (none found in the environment)")
	errHostnameRequired     = errors.New("server hostname is required")
	errStartMapRequired     = errors.New("start map is required")
	errStartMapInvalid      = errors.New("map names contain only letters, digits, hyphens, and underscores")
	errResourcesDirRequired = errors.New("resources directory is required")
	errNoRegions            = errors.New("provider returned no regions")
	errNoSizes              = errors.New("no size table for provider")
)
