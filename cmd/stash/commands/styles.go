// ABOUTME: Terminal styles for CLI output
// ABOUTME: Lipgloss degrades to plain text when output is not a terminal
package commands

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/harper/stash/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	decisionStyles = map[models.Decision]lipgloss.Style{
		models.DecisionKeep:     lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		models.DecisionConsider: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.DecisionDiscard:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}
)

func success(s string) string {
	return successStyle.Render("✓ " + s)
}

func decisionLabel(d models.Decision) string {
	if style, ok := decisionStyles[d]; ok {
		return style.Render(string(d))
	}
	return string(d)
}
