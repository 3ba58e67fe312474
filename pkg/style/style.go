// Package style renders mdrive's end-of-run summary.
package style

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/calebhs/mdrive/pkg/commands"
)

var (
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	LabelStyle = lipgloss.NewStyle().
			Bold(true)
)

// RenderSummary formats a sync result as a one-screen summary.
func RenderSummary(result *commands.SyncResult) string {
	var b strings.Builder

	header := "Sync complete"
	if result.DryRun {
		header = "Dry run (nothing written)"
	}
	if result.Stats.Failed > 0 {
		b.WriteString(ErrorStyle.Render(header))
	} else {
		b.WriteString(SuccessStyle.Render(header))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %d\n", LabelStyle.Render("copied: "), result.Stats.Copied)
	fmt.Fprintf(&b, "%s %d\n", LabelStyle.Render("skipped:"), result.Stats.Skipped)
	if result.Stats.Failed > 0 {
		fmt.Fprintf(&b, "%s %d\n", ErrorStyle.Render("failed: "), result.Stats.Failed)
	}
	fmt.Fprintf(&b, "%s %d\n", LabelStyle.Render("pruned: "), result.Pruned)
	b.WriteString(MutedStyle.Render(fmt.Sprintf("%d files on drive", result.Destinations)))
	b.WriteString("\n")

	return b.String()
}
