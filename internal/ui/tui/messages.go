// Package tui provides a Bubble Tea terminal UI for provisioning progress.
package tui

import "github.com/imamik/srcdsctl/internal/provisioning"

// EventMsg carries one provisioning event into the model.
type EventMsg struct {
	Event provisioning.Event
}

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// DoneMsg signals that the driven operation finished. Err is the
// operation's terminal error, nil on success.
type DoneMsg struct{ Err error }
