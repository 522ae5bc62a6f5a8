package engine

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"weeksnap/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	nameStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// RenderReport formats a run summary for the terminal: one line per source
// with its artifact or failure reason, then the overall result.
func RenderReport(r *domain.RunReport) string {
	var b strings.Builder

	window := fmt.Sprintf("%s..%s", r.WindowStart.Format(time.DateOnly), r.WindowEnd.Format(time.DateOnly))
	b.WriteString(headerStyle.Render("Weekly snapshot "+window) + "\n")
	b.WriteString(dimStyle.Render("Output: "+r.OutputDir) + "\n")

	switch r.Outcome {
	case domain.OutcomeSkipped:
		b.WriteString(warnStyle.Render("Keeping existing data, nothing collected.") + "\n")
		return b.String()
	case domain.OutcomeCancelled:
		b.WriteString(warnStyle.Render("Operation cancelled.") + "\n")
		return b.String()
	}

	width := 0
	for _, j := range r.Jobs {
		width = max(width, len(j.Name))
	}

	b.WriteString("\n")
	for _, j := range r.Jobs {
		name := nameStyle.Render(fmt.Sprintf("%-*s", width, j.Name))
		took := dimStyle.Render(fmt.Sprintf("%6s", j.Duration().Round(100*time.Millisecond)))
		if j.State == domain.JobSucceeded {
			fmt.Fprintf(&b, "✅ %s %s  %s\n", name, took, filepath.Base(j.Artifact))
			continue
		}
		reason := j.Error
		if reason == "" {
			reason = string(j.State)
		}
		fmt.Fprintf(&b, "❌ %s %s  %s\n", name, took, failStyle.Render(reason))
	}
	b.WriteString("\n")

	if r.Outcome == domain.OutcomeSucceeded {
		b.WriteString(okStyle.Render(fmt.Sprintf("All %d sources collected.", len(r.Jobs))) + "\n")
	} else {
		b.WriteString(failStyle.Render(fmt.Sprintf("%d of %d sources failed: %s",
			len(r.Failed), len(r.Jobs), strings.Join(r.Failed, ", "))) + "\n")
	}
	return b.String()
}
