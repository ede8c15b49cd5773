package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docchat/config"
)

const (
	emptyPassphraseError     = "Passphrase cannot be empty"
	incorrectPassphraseError = "Incorrect passphrase. Please try again."
)

// PassphraseModal prompts for the passphrase of the SSH key protecting the
// stored API token. Unlock is called on Enter; the modal stays open with an
// error until it succeeds or the user cancels.
type PassphraseModal struct {
	keyPath   string
	input     textinput.Model
	unlock    func(passphrase string) error
	err       string
	width     int
	height    int
	cancelled bool
	unlocked  bool
}

func NewPassphraseModal(keyPath string, unlock func(passphrase string) error) PassphraseModal {
	input := NewPassphraseInput("Enter passphrase")
	input.Focus()

	return PassphraseModal{
		keyPath: keyPath,
		input:   input,
		unlock:  unlock,
	}
}

// NewPassphraseInput creates a masked textinput for passphrase entry
func NewPassphraseInput(placeholder string) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.Width = 50
	input.CharLimit = 200
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	return input
}

func (m PassphraseModal) Init() tea.Cmd {
	return textinput.Blink
}

func (m PassphraseModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit

		case "enter":
			passphrase := m.input.Value()
			if passphrase == "" {
				m.err = emptyPassphraseError
				return m, nil
			}
			if m.unlock != nil {
				if err := m.unlock(passphrase); err != nil {
					if config.DebugLog != nil {
						config.DebugLog.Printf("[PassphraseModal] unlock failed: %v", err)
					}
					m.err = incorrectPassphraseError
					m.input.SetValue("")
					return m, nil
				}
			}
			m.unlocked = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m PassphraseModal) View() string {
	return RenderPassphraseModal("SSH Key Passphrase Required", m.keyPath, m.input, m.err, m.width, m.height)
}

// Passphrase returns the accepted passphrase, empty if cancelled
func (m PassphraseModal) Passphrase() string {
	if !m.unlocked {
		return ""
	}
	return m.input.Value()
}

func (m PassphraseModal) Cancelled() bool {
	return m.cancelled
}

// RenderPassphraseModal renders the passphrase prompt for keyPath
func RenderPassphraseModal(title, keyPath string, input textinput.Model, errorMsg string, width, height int) string {
	if width < 20 || height < 10 {
		return "Terminal too small"
	}

	modalWidth := modalWidthFor(70, width)

	lines := []string{
		centerTextLine("The API token is encrypted with your SSH key.", modalWidth),
		centerTextLine(fmt.Sprintf("Key: %s", keyPath), modalWidth),
		centerTextLine("Please enter the key passphrase:", modalWidth),
		strings.Repeat(" ", modalWidth),
		centerTextLine(input.View(), modalWidth),
	}

	if errorMsg != "" {
		styledErr := lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true).
			Render("⚠ " + errorMsg)
		lines = append(lines, strings.Repeat(" ", modalWidth), centerTextLine(styledErr, modalWidth))
	}

	return RenderThreeSectionModal(title, lines, FormatFooter("Enter", "Continue", "Esc", "Cancel"), ModalTypeInfo, modalWidth, width, height)
}
