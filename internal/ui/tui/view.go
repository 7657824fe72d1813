package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/srcdsctl/internal/registry"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderProgressBar(&b, m)

	if len(m.Rows) > 0 {
		renderRows(&b, m)
	}

	if len(m.Notes) > 0 {
		renderNotes(&b, m)
	}

	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	b.WriteString(titleStyle.Render(m.Title))

	ready, failed := 0, 0
	for _, row := range m.Rows {
		switch {
		case row.Failed:
			failed++
		case row.Ready || row.Deleted:
			ready++
		}
	}

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	case m.Done && failed > 0:
		status += warningStyle.Render(fmt.Sprintf("%d done, %d failed", ready, failed))
	case m.Done:
		status += readyStyle.Render("Done")
	default:
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame) + " ")
		status += dimStyle.Render(fmt.Sprintf("%d/%d done", ready+failed, len(m.Rows)))
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderProgressBar(b *strings.Builder, m Model) {
	progress := overallProgress(m)
	barWidth := 40
	if m.Width > 0 && m.Width < 80 {
		barWidth = m.Width - 30
		if barWidth < 10 {
			barWidth = 10
		}
	}
	filled := int(float64(barWidth) * progress)
	if filled > barWidth {
		filled = barWidth
	}

	bar := progressBarFull.Render(strings.Repeat("█", filled)) +
		progressBarEmpty.Render(strings.Repeat("░", barWidth-filled))

	fmt.Fprintf(b, "  %s %d%%\n", bar, int(progress*100))
}

func renderRows(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Instances"))
	b.WriteString("\n")

	for _, row := range m.Rows {
		icon, style := rowIcon(row, m.SpinnerFrame)

		dur := ""
		if !row.StartedAt.IsZero() {
			end := time.Now()
			if !row.EndedAt.IsZero() {
				end = row.EndedAt
			}
			dur = formatDuration(end.Sub(row.StartedAt))
		}

		fmt.Fprintf(b, "    %s %-14s %-18s %s %s\n",
			style(icon), style(row.Name), style(phaseLabel(row)), rowMiniBar(row), dimStyle.Render(dur))

		if row.Failed && row.Err != nil {
			fmt.Fprintf(b, "         %s\n", failedStyle.Render(row.Err.Error()))
		} else if row.Note != "" {
			fmt.Fprintf(b, "         %s\n", warningStyle.Render(row.Note))
		}
	}
}

func renderNotes(b *strings.Builder, m Model) {
	for _, note := range m.Notes {
		fmt.Fprintf(b, "  %s\n", warningStyle.Render(note))
	}
}

func renderFooter(b *strings.Builder, m Model) {
	elapsed := formatDuration(time.Since(m.StartTime))
	pulse := ""
	if !m.Done {
		pulse = "  |  " + currentSpinner(m.SpinnerFrame) + " provisioning"
	}
	b.WriteString(footerStyle.Render(fmt.Sprintf("  elapsed: %s%s  |  q: quit", elapsed, pulse)))
	b.WriteString("\n")
}

// Helper functions

func rowIcon(row instanceRow, frame int) (string, styleFunc) {
	switch {
	case row.Failed:
		return crossMark, sf(failedStyle)
	case row.Ready || row.Deleted:
		return checkMark, sf(readyStyle)
	case row.Phase == "" || row.Phase == registry.PhaseRequested:
		return pending, sf(dimStyle)
	default:
		return currentSpinner(frame), sf(activeStyle)
	}
}

func phaseLabel(row instanceRow) string {
	switch {
	case row.Deleted:
		return "deleted"
	case row.Ready:
		return string(registry.PhaseReady)
	case row.Failed:
		return fmt.Sprintf("failed (%s)", row.Phase)
	case row.Phase == "":
		return "queued"
	default:
		return string(row.Phase)
	}
}

func currentSpinner(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}

func rowMiniBar(row instanceRow) string {
	const width = 10
	progress := rowProgress(row)
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * width)
	if filled > width {
		filled = width
	}
	return progressBarFull.Render(strings.Repeat("█", filled)) + progressBarEmpty.Render(strings.Repeat("░", width-filled))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
