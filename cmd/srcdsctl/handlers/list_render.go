package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/srcdsctl/internal/registry"
)

// Colors matching internal/ui/tui/styles.go palette.
var (
	listColorGreen  = lipgloss.Color("#22c55e")
	listColorRed    = lipgloss.Color("#ef4444")
	listColorYellow = lipgloss.Color("#eab308")
	listColorBlue   = lipgloss.Color("#3b82f6")
	listColorDim    = lipgloss.Color("#6b7280")
)

var (
	listHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(listColorBlue)

	listDimStyle = lipgloss.NewStyle().
			Foreground(listColorDim)

	listReadyStyle = lipgloss.NewStyle().
			Foreground(listColorGreen)

	listFailedStyle = lipgloss.NewStyle().
			Foreground(listColorRed)

	listBusyStyle = lipgloss.NewStyle().
			Foreground(listColorYellow)
)

// renderInstanceList produces the fleet listing.
func renderInstanceList(instances []registry.Instance) string {
	var b strings.Builder

	header := fmt.Sprintf("  %-20s %-14s %-12s %-20s %-16s %s",
		"NAME", "PROVIDER", "REGION", "PHASE", "IP", "AGE")
	b.WriteString(listHeaderStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("  " + strings.Repeat("─", 88)))
	b.WriteString("\n")

	for i := range instances {
		inst := &instances[i]
		ip := inst.PublicIP
		if ip == "" {
			ip = "-"
		}
		phase := listPhaseStyle(inst.Phase).Render(fmt.Sprintf("%-20s", listPhaseLabel(inst)))
		b.WriteString(fmt.Sprintf("  %-20s %-14s %-12s %s %-16s %s\n",
			inst.Name, inst.Provider, inst.Region, phase, ip,
			listDimStyle.Render(formatAge(inst.CreatedAt))))
	}

	return b.String()
}

// listPhaseLabel names the failed phase so a glance shows where a
// server got stuck.
func listPhaseLabel(inst *registry.Instance) string {
	if inst.Phase == registry.PhaseFailed && inst.FailedPhase != "" {
		return fmt.Sprintf("failed (%s)", inst.FailedPhase)
	}
	return string(inst.Phase)
}

func listPhaseStyle(phase registry.Phase) lipgloss.Style {
	switch phase {
	case registry.PhaseReady:
		return listReadyStyle
	case registry.PhaseFailed:
		return listFailedStyle
	case registry.PhaseDeleting:
		return listDimStyle
	default:
		return listBusyStyle
	}
}

// formatAge renders a coarse age like "5m", "3h", or "12d".
func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
