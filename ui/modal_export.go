package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docchat/storage"
)

var exportFormats = []struct {
	format storage.ExportFormat
	label  string
}{
	{storage.ExportHTML, "HTML"},
	{storage.ExportMarkdown, "Markdown"},
	{storage.ExportJSON, "JSON"},
}

type exportState struct {
	active   bool
	selected int
	path     textinput.Model
}

func newExportState() exportState {
	path := textinput.New()
	path.Prompt = "Path: "
	path.Placeholder = "leave empty for the exports directory"
	path.CharLimit = 512
	path.Width = 56
	return exportState{path: path}
}

func (e *exportState) Open() tea.Cmd {
	e.active = true
	e.path.SetValue("")
	e.path.Focus()
	return textinput.Blink
}

func (e *exportState) Close() {
	e.active = false
	e.path.Blur()
}

func (e exportState) Format() storage.ExportFormat {
	return exportFormats[e.selected].format
}

func (e *exportState) Next() {
	e.selected = (e.selected + 1) % len(exportFormats)
}

func (e *exportState) Prev() {
	e.selected = (e.selected + len(exportFormats) - 1) % len(exportFormats)
}

func (a AppView) renderExportModal() string {
	modalWidth := modalWidthFor(70, a.width)

	var choices []string
	for i, f := range exportFormats {
		if i == a.export.selected {
			choices = append(choices, SelectedStyle.Render("[ "+f.label+" ]"))
		} else {
			choices = append(choices, DimStyle.Render("  "+f.label+"  "))
		}
	}

	rowStyle := lipgloss.NewStyle().Width(modalWidth)
	lines := []string{
		centerTextLine(strings.Join(choices, " "), modalWidth),
		"",
		rowStyle.Render("  " + a.export.path.View()),
	}

	footer := FormatFooter("Tab", "Format", "Enter", "Export", a.kb.DisplayActionKey("clear_input"), "Clear", "Esc", "Cancel")
	return RenderThreeSectionModal("Export Conversation", lines, footer, ModalTypeInfo, modalWidth, a.width, a.height)
}
