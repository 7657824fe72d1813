package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/srcdsctl/internal/provisioning"
	"github.com/imamik/srcdsctl/internal/registry"
)

// phaseSteps orders the create-path phases for progress rendering.
var phaseSteps = map[registry.Phase]int{
	registry.PhaseCreating:        0,
	registry.PhaseAwaitingAddress: 1,
	registry.PhaseBootstrapping:   2,
	registry.PhaseApplyingOverlay: 3,
}

const phaseStepCount = 4

// instanceRow tracks the displayed state of one instance.
type instanceRow struct {
	Name      string
	Phase     registry.Phase
	PhaseDone bool
	Ready     bool
	Failed    bool
	Deleted   bool
	Note      string
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
}

// Model is the Bubble Tea model for provisioning progress.
type Model struct {
	Title string

	Rows  []instanceRow
	index map[string]int
	Notes []string

	// Animation
	SpinnerFrame int

	// UI state
	Width     int
	Height    int
	StartTime time.Time
	Done      bool
	Err       error
}

// NewModel creates a progress model with the given title line.
func NewModel(title string) Model {
	return Model{
		Title:     title,
		index:     make(map[string]int),
		StartTime: time.Now(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case EventMsg:
		m.applyEvent(msg.Event)

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()

	case DoneMsg:
		m.Done = true
		m.Err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) applyEvent(e provisioning.Event) {
	if e.Instance == "" {
		if e.Message != "" {
			m.Notes = append(m.Notes, e.Message)
			if len(m.Notes) > 3 {
				m.Notes = m.Notes[len(m.Notes)-3:]
			}
		}
		return
	}

	idx, ok := m.index[e.Instance]
	if !ok {
		idx = len(m.Rows)
		m.Rows = append(m.Rows, instanceRow{Name: e.Instance, StartedAt: e.Timestamp})
		m.index[e.Instance] = idx
	}
	row := &m.Rows[idx]

	switch e.Type {
	case provisioning.EventPhaseStarted:
		row.Phase = e.Phase
		row.PhaseDone = false
	case provisioning.EventPhaseCompleted:
		row.Phase = e.Phase
		row.PhaseDone = true
	case provisioning.EventPhaseFailed:
		row.Phase = e.Phase
		row.Failed = true
		row.Err = e.Err
		row.EndedAt = e.Timestamp
	case provisioning.EventInstanceReady:
		row.Phase = registry.PhaseReady
		row.Ready = true
		row.EndedAt = e.Timestamp
	case provisioning.EventInstanceDeleted:
		row.Deleted = true
		row.EndedAt = e.Timestamp
	case provisioning.EventWarning, provisioning.EventInfo:
		row.Note = e.Message
	}
}

// rowProgress reports how far along the create path a row is, 0..1.
func rowProgress(row instanceRow) float64 {
	if row.Ready || row.Deleted {
		return 1.0
	}
	step, ok := phaseSteps[row.Phase]
	if !ok {
		return 0
	}
	p := float64(step) / phaseStepCount
	if row.PhaseDone {
		p += 1.0 / phaseStepCount
	} else if !row.Failed {
		p += 0.5 / phaseStepCount
	}
	return p
}

// overallProgress averages row progress across all instances.
func overallProgress(m Model) float64 {
	if m.Done {
		return 1.0
	}
	if len(m.Rows) == 0 {
		return 0
	}
	var sum float64
	for _, row := range m.Rows {
		sum += rowProgress(row)
	}
	return sum / float64(len(m.Rows))
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
