package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (a AppView) renderHelpModal() string {
	kb := a.kb

	green := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor)

	title := green.Render("docchat - Keyboard Shortcuts")

	blue := lipgloss.NewStyle().Foreground(accentColor)

	documents := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Documents"),
		fmt.Sprintf("• %-15s Attach a file", kb.DisplayActionKey("attach_file")),
		fmt.Sprintf("• %-15s Recent documents", kb.DisplayActionKey("recent_documents")),
		fmt.Sprintf("• %-15s Remove attached file", kb.DisplayActionKey("remove_file")),
	)

	conversations := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Conversations"),
		fmt.Sprintf("• %-15s New conversation", kb.DisplayActionKey("new_conversation")),
		fmt.Sprintf("• %-15s Conversations", kb.DisplayActionKey("conversations")),
		fmt.Sprintf("• %-15s Export", kb.DisplayActionKey("export")),
		fmt.Sprintf("• %-15s Toggle this help", kb.DisplayActionKey("help")),
		fmt.Sprintf("• %-15s Quit", kb.DisplayActionKey("quit")),
	)

	navigation := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Navigation"),
		fmt.Sprintf("• %-15s Scroll down 1 line", kb.DisplayActionKey("scroll_down")),
		fmt.Sprintf("• %-15s Scroll up 1 line", kb.DisplayActionKey("scroll_up")),
		fmt.Sprintf("• %-15s Half page down", kb.DisplayActionKey("half_page_down")),
		fmt.Sprintf("• %-15s Half page up", kb.DisplayActionKey("half_page_up")),
		fmt.Sprintf("• %-15s Full page down", kb.DisplayActionKey("page_down")),
		fmt.Sprintf("• %-15s Full page up", kb.DisplayActionKey("page_up")),
		fmt.Sprintf("• %-15s Jump to top", kb.DisplayActionKey("scroll_to_top")),
		fmt.Sprintf("• %-15s Jump to bottom", kb.DisplayActionKey("scroll_to_bottom")),
	)

	chat := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Asking"),
		"• Enter           Ask about the attached files",
		"• Alt+Enter       New line",
		"• Esc             Skip the reveal animation",
		fmt.Sprintf("• %-15s Toggle reveal animation", kb.DisplayActionKey("toggle_reveal")),
		fmt.Sprintf("• %-15s Copy last answer", kb.DisplayActionKey("yank_last_answer")),
		fmt.Sprintf("• %-15s Copy conversation", kb.DisplayActionKey("yank_conversation")),
		fmt.Sprintf("• %-15s Clear input", kb.DisplayActionKey("clear_input")),
	)

	column1 := lipgloss.JoinVertical(lipgloss.Left, documents, "", conversations)
	column2 := lipgloss.JoinVertical(lipgloss.Left, chat, "", navigation)

	columnStyle := lipgloss.NewStyle().Width(46).PaddingLeft(4)

	twoColumns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		columnStyle.Render(column1),
		"  ",
		columnStyle.Render(column2),
	)

	footer := DimStyle.Render(fmt.Sprintf("Press %s or Esc to close this help", kb.DisplayActionKey("help")))

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		twoColumns,
		"",
		footer,
	)

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(1, 2)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, helpBox.Render(content))
}
