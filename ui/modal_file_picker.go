package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docchat/config"
)

type FilePickerConfig struct {
	Title          string
	AllowedTypes   []string // empty allows every file
	StartDirectory string   // empty starts in the home directory
	ShowHidden     bool
}

// FilePickerState wraps a bubbles filepicker shown as a modal
type FilePickerState struct {
	Active bool
	Picker filepicker.Model
	Config FilePickerConfig
}

func NewFilePickerState(cfg FilePickerConfig) FilePickerState {
	fp := filepicker.New()
	fp.AllowedTypes = cfg.AllowedTypes
	fp.Height = 10
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.ShowPermissions = false
	fp.ShowSize = true
	fp.ShowHidden = cfg.ShowHidden

	startDir := cfg.StartDirectory
	if startDir == "" {
		startDir = config.GetHomeDir()
	}
	fp.CurrentDirectory = startDir

	fp.Styles.Directory = lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true)
	fp.Styles.File = lipgloss.NewStyle().
		Foreground(lipgloss.Color("15"))
	fp.Styles.Selected = lipgloss.NewStyle().
		Foreground(successColor).
		Bold(true)
	fp.Styles.Cursor = lipgloss.NewStyle().
		Foreground(successColor)

	return FilePickerState{
		Picker: fp,
		Config: cfg,
	}
}

// Activate opens the picker and reads its current directory
func (fps *FilePickerState) Activate() tea.Cmd {
	fps.Active = true
	return fps.Picker.Init()
}

func (fps *FilePickerState) Reset() {
	fps.Active = false
}

// Update forwards msg to the picker and reports the path of a file the
// user just chose, if any. The picker remembers the directory it was
// closed in for the next time it opens.
func (fps *FilePickerState) Update(msg tea.Msg) (string, tea.Cmd) {
	var cmd tea.Cmd
	fps.Picker, cmd = fps.Picker.Update(msg)

	if ok, path := fps.Picker.DidSelectFile(msg); ok {
		return path, cmd
	}
	return "", cmd
}

func RenderFilePickerModal(state FilePickerState, attached, max int, width, height int) string {
	if width < 20 || height < 10 {
		return "Terminal too small"
	}

	modalWidth := width - 10
	if modalWidth > 80 {
		modalWidth = 80
	}

	contentStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Align(lipgloss.Left)

	var lines []string
	lines = append(lines, contentStyle.Render(DimStyle.Render("  "+truncate(state.Picker.CurrentDirectory, modalWidth-4))))
	lines = append(lines, strings.Repeat(" ", modalWidth))

	for _, line := range strings.Split(state.Picker.View(), "\n") {
		lines = append(lines, contentStyle.Render("  "+strings.TrimRight(line, " ")))
	}

	lines = append(lines, strings.Repeat(" ", modalWidth))
	lines = append(lines, contentStyle.Render(DimStyle.Render(
		"  "+pluralize(attached, "file")+" attached, up to "+pluralize(max, "file"))))

	footer := FormatFooter("j/k", "Navigate", "h/l", "Back/Open", "Enter", "Attach", "Esc", "Close")
	return RenderThreeSectionModal(state.Config.Title, lines, footer, ModalTypeInfo, modalWidth, width, height)
}
