package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/srcdsctl/internal/provisioning"
)

// Run drives the progress display while fn executes in the background.
// fn receives an observer that forwards provisioning events to the
// display; its return value becomes Run's result. Quitting the display
// early abandons fn, which stops when the process exits.
func Run(title string, fn func(obs provisioning.Observer) error) error {
	m := NewModel(title)

	p := tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		p.Send(DoneMsg{Err: fn(&programObserver{program: p})})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	fm := finalModel.(Model)
	return fm.Err
}

// programObserver forwards provisioning events into a running program.
type programObserver struct {
	program *tea.Program
	fields  map[string]string
}

func (o *programObserver) Event(e provisioning.Event) {
	if len(o.fields) > 0 {
		merged := make(map[string]string, len(o.fields)+len(e.Fields))
		for k, v := range o.fields {
			merged[k] = v
		}
		for k, v := range e.Fields {
			merged[k] = v
		}
		e.Fields = merged
	}
	o.program.Send(EventMsg{Event: e})
}

func (o *programObserver) WithFields(fields map[string]string) provisioning.Observer {
	merged := make(map[string]string, len(o.fields)+len(fields))
	for k, v := range o.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &programObserver{program: o.program, fields: merged}
}
