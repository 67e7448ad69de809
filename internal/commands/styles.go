package commands

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/cleared-dev/reconcile/internal/model"
)

// Styles degrade to plain text when output is not a terminal.
var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	confidenceStyles = map[model.Confidence]lipgloss.Style{
		model.ConfidenceHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4")),
		model.ConfidenceMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D")),
		model.ConfidenceLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
	}
)

func renderConfidence(c model.Confidence, text string) string {
	if s, ok := confidenceStyles[c]; ok {
		return s.Render(text)
	}
	return text
}
