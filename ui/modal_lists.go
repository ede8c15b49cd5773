package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"docchat/backend"
	"docchat/storage"
)

const listRows = 12

// listState is the selection and fuzzy filter shared by the list modals.
// It works on item names only; callers map the selected index back to
// their own slice.
type listState struct {
	names      []string
	visible    []int // indices into names, in display order
	selected   int   // position in visible
	filterMode bool
	filter     textinput.Model
}

func newListState() listState {
	filter := textinput.New()
	filter.Prompt = "Filter: "
	filter.CharLimit = 64
	return listState{filter: filter}
}

// SetItems replaces the items and re-applies the current filter
func (l *listState) SetItems(names []string) {
	l.names = names
	l.applyFilter()
}

func (l *listState) applyFilter() {
	pattern := ""
	if l.filterMode {
		pattern = l.filter.Value()
	}

	visible := make([]int, 0, len(l.names))
	if pattern == "" {
		for i := range l.names {
			visible = append(visible, i)
		}
	} else {
		for _, match := range fuzzy.Find(pattern, l.names) {
			visible = append(visible, match.Index)
		}
	}
	l.visible = visible

	if l.selected >= len(l.visible) {
		l.selected = len(l.visible) - 1
	}
	if l.selected < 0 {
		l.selected = 0
	}
}

// Selected returns the index of the selected item in the caller's slice
func (l listState) Selected() (int, bool) {
	if l.selected < 0 || l.selected >= len(l.visible) {
		return 0, false
	}
	return l.visible[l.selected], true
}

func (l *listState) Down() {
	if l.selected < len(l.visible)-1 {
		l.selected++
	}
}

func (l *listState) Up() {
	if l.selected > 0 {
		l.selected--
	}
}

func (l *listState) StartFilter() tea.Cmd {
	l.filterMode = true
	l.filter.SetValue("")
	l.applyFilter()
	l.filter.Focus()
	return textinput.Blink
}

func (l *listState) StopFilter() {
	l.filterMode = false
	l.filter.Blur()
	l.filter.SetValue("")
	l.selected = 0
	l.applyFilter()
}

func (l *listState) UpdateFilter(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	l.filter, cmd = l.filter.Update(msg)
	l.selected = 0
	l.applyFilter()
	return cmd
}

// render lists the visible rows around the selection. label returns the
// name and a dimmed detail for item i.
func (l listState) render(width int, empty string, label func(i int) (string, string)) []string {
	rowStyle := lipgloss.NewStyle().Width(width)

	var lines []string
	if l.filterMode {
		lines = append(lines, rowStyle.Render("  "+l.filter.View()), "")
	}

	if len(l.visible) == 0 {
		return append(lines, rowStyle.Render(DimStyle.Render("  "+empty)))
	}

	start := 0
	if l.selected >= listRows {
		start = l.selected - listRows + 1
	}
	end := min(start+listRows, len(l.visible))

	for pos := start; pos < end; pos++ {
		name, detail := label(l.visible[pos])
		name = truncate(name, width-4)
		if room := width - 6 - runewidth.StringWidth(name); room > 3 && detail != "" {
			detail = "  " + DimStyle.Render(truncate(detail, room))
		} else {
			detail = ""
		}
		if pos == l.selected {
			lines = append(lines, rowStyle.Render(SelectedStyle.Render("▶ "+name)+detail))
		} else {
			lines = append(lines, rowStyle.Render("  "+name+detail))
		}
	}

	if len(l.visible) > listRows {
		lines = append(lines, "", rowStyle.Render(DimStyle.Render(fmt.Sprintf("  %d/%d", l.selected+1, len(l.visible)))))
	}
	return lines
}

func documentNames(docs []storage.Document) []string {
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name + " " + d.Path
	}
	return names
}

func conversationNames(convs []storage.ConversationMetadata) []string {
	names := make([]string, len(convs))
	for i, c := range convs {
		names[i] = c.Name
	}
	return names
}

func (a AppView) renderDocumentsModal() string {
	modalWidth := modalWidthFor(80, a.width)

	lines := a.documentList.render(modalWidth, "No documents attached yet", func(i int) (string, string) {
		d := a.documents[i]
		return d.Name, fmt.Sprintf("%s, used %s, %s",
			backend.FormatSize(d.Size), pluralize(d.UseCount, "time"), d.LastUsedAt.Format("2006-01-02"))
	})

	footer := FormatFooter("j/k", "Navigate", "/", "Filter", "Enter", "Attach", "x", "Forget", "Esc", "Close")
	if a.documentList.filterMode {
		footer = FormatFooter("Type", "to filter", "↑/↓", "Navigate", "Enter", "Attach", "Esc", "Clear")
	}
	return RenderThreeSectionModal("Recent Documents", lines, footer, ModalTypeInfo, modalWidth, a.width, a.height)
}

func (a AppView) renderAttachedModal() string {
	modalWidth := modalWidthFor(70, a.width)

	files := a.dataModel.Files.Files()
	lines := a.attachedList.render(modalWidth, "No files attached", func(i int) (string, string) {
		f := files[i]
		return f.Name, backend.FormatSize(f.Size) + ", " + f.ContentType
	})

	footer := FormatFooter("j/k", "Navigate", "Enter/x", "Remove", "Esc", "Close")
	return RenderThreeSectionModal("Attached Files", lines, footer, ModalTypeInfo, modalWidth, a.width, a.height)
}

func (a AppView) renderConversationsModal() string {
	modalWidth := modalWidthFor(80, a.width)

	if a.confirmDelete != nil {
		lines := []string{
			centerTextLine("Delete this conversation?", modalWidth),
			"",
			centerTextLine(HighlightStyle.Render(truncate(a.confirmDelete.Name, modalWidth-4)), modalWidth),
		}
		return RenderThreeSectionModal("Delete Conversation", lines, FormatFooter("y", "Delete", "n/Esc", "Cancel"), ModalTypeWarning, modalWidth, a.width, a.height)
	}

	currentID := ""
	if a.dataModel.Current != nil {
		currentID = a.dataModel.Current.ID
	}

	lines := a.conversationList.render(modalWidth, "No saved conversations", func(i int) (string, string) {
		c := a.conversations[i]
		name := c.Name
		if c.ID == currentID {
			name += " (current)"
		}
		return name, fmt.Sprintf("%s, %s", pluralize(c.MessageCount, "message"), c.UpdatedAt.Format("2006-01-02 15:04"))
	})

	if a.renameMode {
		lines = append(lines, "", lipgloss.NewStyle().Width(modalWidth).Render("  "+a.renameInput.View()))
	}

	var footer string
	switch {
	case a.renameMode:
		footer = FormatFooter("Enter", "Save", a.kb.DisplayActionKey("clear_input"), "Clear", "Esc", "Cancel")
	case a.conversationList.filterMode:
		footer = FormatFooter("Type", "to filter", "↑/↓", "Navigate", "Enter", "Open", "Esc", "Clear")
	default:
		footer = FormatFooter("j/k", "Navigate", "/", "Filter", "f", "Search", "Enter", "Open", "r", "Rename", "x", "Delete", "Esc", "Close")
	}
	return RenderThreeSectionModal("Conversations", lines, footer, ModalTypeInfo, modalWidth, a.width, a.height)
}

func (a AppView) renderSearchModal() string {
	modalWidth := modalWidthFor(80, a.width)
	rowStyle := lipgloss.NewStyle().Width(modalWidth)

	lines := []string{rowStyle.Render("  " + a.searchInput.View()), ""}

	switch {
	case a.searchErr != "":
		lines = append(lines, rowStyle.Render(ErrorStyle.Render("  "+a.searchErr)))
	case len(a.searchResults) == 0 && a.searchedFor != "":
		lines = append(lines, rowStyle.Render(DimStyle.Render("  No matches for \""+a.searchedFor+"\"")))
	}

	start := 0
	if a.searchSelected >= listRows/2 {
		start = a.searchSelected - listRows/2 + 1
	}
	end := min(start+listRows/2, len(a.searchResults))

	for i := start; i < end; i++ {
		m := a.searchResults[i]
		who := "You"
		if m.Role == storage.RoleAssistant {
			who = "Answer"
		}
		head := truncate(fmt.Sprintf("%s · %s", m.ConversationName, who), modalWidth-4)
		preview := truncate(strings.ReplaceAll(m.Preview, "\n", " "), modalWidth-6)
		if i == a.searchSelected {
			lines = append(lines, rowStyle.Render(SelectedStyle.Render("▶ "+head)))
		} else {
			lines = append(lines, rowStyle.Render("  "+TitleStyle.Render(head)))
		}
		lines = append(lines, rowStyle.Render("    "+DimStyle.Render(preview)))
	}

	footer := FormatFooter("Enter", "Search/Open", "↑/↓", "Navigate", a.kb.DisplayActionKey("clear_input"), "Clear", "Esc", "Back")
	return RenderThreeSectionModal("Search Conversations", lines, footer, ModalTypeInfo, modalWidth, a.width, a.height)
}
