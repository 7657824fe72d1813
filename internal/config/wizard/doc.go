// Package wizard provides the interactive configuration flow for srcdsctl.
//
// It uses charmbracelet/huh for form-based input collection. The main
// entry point is Run, which walks the question groups against a copy of
// the current settings and returns the updated struct; callers persist
// it with Settings.Save. Provider catalogs (live regions, curated sizes)
// are injected so the package stays independent of the SDK adapters.
package wizard
