package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"docchat/config"
)

func (a AppView) handleFilePickerKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	if msg.String() == "esc" {
		a.filePicker.Reset()
		return a, nil
	}

	path, cmd := a.filePicker.Update(msg)
	if path == "" {
		return a, cmd
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[UI] handleFilePickerKey: selected %s", path)
	}
	a.filePicker.Reset()
	return a, tea.Batch(cmd, a.dataModel.AttachFile(path))
}

// handleListKey runs the navigation and filter keys shared by the list
// modals. It reports whether the key was consumed.
func (a AppView) handleListKey(l *listState, msg tea.KeyMsg) (bool, tea.Cmd) {
	kb := a.kb
	keyStr := msg.String()

	if l.filterMode {
		switch keyStr {
		case "esc":
			l.StopFilter()
			return true, nil
		case "up", kb.GetActionKey("list_up_alt"):
			l.Up()
			return true, nil
		case "down", kb.GetActionKey("list_down_alt"):
			l.Down()
			return true, nil
		case "enter":
			return false, nil
		case kb.GetActionKey("clear_input"):
			l.filter.SetValue("")
			l.applyFilter()
			return true, nil
		}
		return true, l.UpdateFilter(msg)
	}

	switch keyStr {
	case kb.GetActionKey("list_up"), kb.GetActionKey("list_up_alt"), "k":
		l.Up()
		return true, nil
	case kb.GetActionKey("list_down"), kb.GetActionKey("list_down_alt"), "j":
		l.Down()
		return true, nil
	}
	return false, nil
}

func (a AppView) handleDocumentsKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	if handled, cmd := a.handleListKey(&a.documentList, msg); handled {
		return a, cmd
	}

	switch msg.String() {
	case "esc":
		a.closeAllModals()
		return a, nil

	case "/":
		return a, a.documentList.StartFilter()

	case "enter":
		i, ok := a.documentList.Selected()
		if !ok {
			return a, nil
		}
		doc := a.documents[i]
		a.closeAllModals()
		return a, a.dataModel.AttachRecent(doc)

	case "x", a.kb.GetActionKey("list_delete"):
		i, ok := a.documentList.Selected()
		if !ok {
			return a, nil
		}
		return a, a.dataModel.ForgetDocument(a.documents[i].ID)
	}
	return a, nil
}

func (a AppView) handleAttachedKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	if handled, cmd := a.handleListKey(&a.attachedList, msg); handled {
		return a, cmd
	}

	switch msg.String() {
	case "esc":
		a.closeAllModals()
		return a, nil

	case "enter", "x", a.kb.GetActionKey("list_delete"):
		i, ok := a.attachedList.Selected()
		if !ok {
			return a, nil
		}
		f, err := a.dataModel.RemoveFile(i)
		if err != nil {
			return a, a.setFlash(err.Error(), true)
		}
		if a.dataModel.Files.Len() == 0 {
			a.closeAllModals()
		} else {
			a.attachedList.SetItems(a.dataModel.Files.Names())
		}
		return a, a.setFlash("Removed "+f.Name, false)
	}
	return a, nil
}

func (a AppView) handleConversationsKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	kb := a.kb
	keyStr := msg.String()

	if a.confirmDelete != nil {
		switch keyStr {
		case "y", "Y":
			id := a.confirmDelete.ID
			a.confirmDelete = nil
			current := a.dataModel.Current != nil && a.dataModel.Current.ID == id
			cmd := a.dataModel.DeleteConversation(id)
			if current {
				a.stopReveals()
				a.updateViewportContent(true)
			}
			return a, cmd
		case "n", "N", "esc":
			a.confirmDelete = nil
		}
		return a, nil
	}

	if a.renameMode {
		switch keyStr {
		case "esc":
			a.renameMode = false
			a.renameInput.Blur()
			return a, nil
		case kb.GetActionKey("clear_input"):
			a.renameInput.SetValue("")
			return a, nil
		case "enter":
			name := strings.TrimSpace(a.renameInput.Value())
			i, ok := a.conversationList.Selected()
			a.renameMode = false
			a.renameInput.Blur()
			if !ok || name == "" {
				return a, nil
			}
			return a, a.dataModel.RenameConversation(a.conversations[i].ID, name)
		}
		var cmd tea.Cmd
		a.renameInput, cmd = a.renameInput.Update(msg)
		return a, cmd
	}

	if handled, cmd := a.handleListKey(&a.conversationList, msg); handled {
		return a, cmd
	}

	switch keyStr {
	case "esc":
		a.closeAllModals()
		return a, nil

	case "/":
		return a, a.conversationList.StartFilter()

	case "f":
		a.showSearch = true
		a.searchInput.SetValue("")
		a.searchResults = nil
		a.searchSelected = 0
		a.searchedFor = ""
		a.searchErr = ""
		a.searchInput.Focus()
		return a, textinput.Blink

	case "enter":
		i, ok := a.conversationList.Selected()
		if !ok {
			return a, nil
		}
		id := a.conversations[i].ID
		a.closeAllModals()
		return a, a.dataModel.LoadConversation(id)

	case "r", kb.GetActionKey("list_rename"):
		i, ok := a.conversationList.Selected()
		if !ok {
			return a, nil
		}
		a.renameMode = true
		a.renameInput.SetValue(a.conversations[i].Name)
		a.renameInput.CursorEnd()
		a.renameInput.Focus()
		return a, textinput.Blink

	case "x", kb.GetActionKey("list_delete"):
		i, ok := a.conversationList.Selected()
		if !ok {
			return a, nil
		}
		c := a.conversations[i]
		a.confirmDelete = &c
		return a, nil
	}
	return a, nil
}

func (a AppView) handleSearchKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.showSearch = false
		a.searchInput.Blur()
		return a, nil

	case "up":
		if a.searchSelected > 0 {
			a.searchSelected--
		}
		return a, nil

	case "down":
		if a.searchSelected < len(a.searchResults)-1 {
			a.searchSelected++
		}
		return a, nil

	case a.kb.GetActionKey("clear_input"):
		a.searchInput.SetValue("")
		return a, nil

	case "enter":
		query := strings.TrimSpace(a.searchInput.Value())
		if query != "" && query != a.searchedFor {
			return a, a.dataModel.SearchConversations(query)
		}
		if a.searchSelected < len(a.searchResults) {
			id := a.searchResults[a.searchSelected].ConversationID
			a.closeAllModals()
			return a, a.dataModel.LoadConversation(id)
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	return a, cmd
}

func (a AppView) handleExportKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.export.Close()
		return a, nil
	case "tab":
		a.export.Next()
		return a, nil
	case "shift+tab":
		a.export.Prev()
		return a, nil
	case a.kb.GetActionKey("clear_input"):
		a.export.path.SetValue("")
		return a, nil
	case "enter":
		path := config.ExpandPath(strings.TrimSpace(a.export.path.Value()))
		format := a.export.Format()
		a.export.Close()
		return a, a.dataModel.ExportConversation(path, format)
	}

	var cmd tea.Cmd
	a.export.path, cmd = a.export.path.Update(msg)
	return a, cmd
}
