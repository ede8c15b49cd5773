package format

import "github.com/charmbracelet/lipgloss"

var (
	borderColor  = lipgloss.Color("8")
	codeColor    = lipgloss.Color("2")
	mathColor    = lipgloss.Color("13")
	failureColor = lipgloss.Color("1")

	textStyle = lipgloss.NewStyle()

	boldStyle = lipgloss.NewStyle().Bold(true)

	markerStyle = lipgloss.NewStyle().Bold(true)

	mathStyle = lipgloss.NewStyle().Foreground(mathColor)

	// Formulas that failed to render stay as their literal source
	mathSourceStyle = lipgloss.NewStyle().Foreground(failureColor)

	codeStyle = lipgloss.NewStyle().Foreground(codeColor).TabWidth(lipgloss.NoTabConversion)

	borderStyle = lipgloss.NewStyle().Foreground(borderColor)

	faintStyle = lipgloss.NewStyle().Faint(true)
)
