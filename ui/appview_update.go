package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"docchat/backend"
	"docchat/config"
	appmodel "docchat/model"
	"docchat/reveal"
)

const flashDuration = 3 * time.Second

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	// Reveals own unexported tick messages, so every message goes to them
	if cmd = a.updateReveals(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	if a.dataModel.Generating {
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	// File picker reads directories through its own messages
	if a.filePicker.Active {
		if _, isKey := msg.(tea.KeyMsg); !isKey {
			_, cmd = a.filePicker.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

		a.viewport.Width = a.width
		a.viewport.Height = max(a.height-chromeHeight, 1)
		a.textarea.SetWidth(a.width)
		a.filePicker.Picker.Height = max(min(a.height-14, 20), 3)

		for id, r := range a.reveals {
			r.Width = a.contentWidth()
			a.reveals[id] = r
		}

		a.ready = true
		a.updateViewportContent(true)
		return a, tea.Batch(cmds...)

	case tea.KeyMsg:
		var next AppView
		next, cmd = a.handleKey(msg)
		cmds = append(cmds, cmd)
		return next, tea.Batch(cmds...)

	case appmodel.AnswerMsg:
		a, cmd = a.handleAnswer(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case reveal.CompletedMsg:
		a.completeReveal(msg.ID)
		a.updateViewportContent(false)
		return a, tea.Batch(cmds...)

	case appmodel.FlashTickMsg:
		if msg.Seq == a.flashSeq {
			a.flash = ""
			a.flashError = false
		}
		return a, tea.Batch(cmds...)

	case appmodel.FileAttachedMsg, appmodel.DocumentsListMsg, appmodel.DocumentDeletedMsg,
		appmodel.ConversationsListMsg, appmodel.ConversationLoadedMsg, appmodel.ConversationSavedMsg,
		appmodel.ConversationDeletedMsg, appmodel.ConversationExportedMsg, appmodel.SearchResultsMsg:
		a, cmd = a.handleModelMsg(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)
	}

	if len(a.reveals) > 0 || a.dataModel.Generating {
		a.updateViewportContent(false)
	}

	return a, tea.Batch(cmds...)
}

func (a AppView) handleKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	kb := a.kb
	keyStr := msg.String()

	if keyStr == "ctrl+c" || keyStr == kb.GetActionKey("quit") {
		return a.quit()
	}

	if keyStr == kb.GetActionKey("help") {
		a.showHelp = !a.showHelp
		return a, nil
	}

	if a.showInfoModal {
		if keyStr == "enter" || keyStr == "esc" {
			a.showInfoModal = false
		}
		return a, nil
	}

	if a.showHelp {
		if keyStr == "esc" {
			a.showHelp = false
		}
		return a, nil
	}

	switch {
	case a.filePicker.Active:
		return a.handleFilePickerKey(msg)
	case a.showDocuments:
		return a.handleDocumentsKey(msg)
	case a.showAttached:
		return a.handleAttachedKey(msg)
	case a.showSearch:
		return a.handleSearchKey(msg)
	case a.showConversations:
		return a.handleConversationsKey(msg)
	case a.export.active:
		return a.handleExportKey(msg)
	}

	return a.handleMainKey(msg)
}

func (a AppView) handleMainKey(msg tea.KeyMsg) (AppView, tea.Cmd) {
	kb := a.kb

	switch msg.String() {
	case kb.GetActionKey("attach_file"):
		a.closeAllModals()
		return a, a.filePicker.Activate()

	case kb.GetActionKey("recent_documents"):
		a.closeAllModals()
		a.showDocuments = true
		return a, a.dataModel.FetchRecentDocuments()

	case kb.GetActionKey("conversations"):
		a.closeAllModals()
		a.showConversations = true
		return a, a.dataModel.ListConversations()

	case kb.GetActionKey("export"):
		if len(a.dataModel.Messages) == 0 {
			return a, a.setFlash("Nothing to export yet", true)
		}
		a.closeAllModals()
		return a, a.export.Open()

	case kb.GetActionKey("remove_file"):
		if a.dataModel.Files.Len() == 0 {
			return a, a.setFlash("No files attached", true)
		}
		a.closeAllModals()
		a.showAttached = true
		a.attachedList.selected = 0
		a.attachedList.SetItems(a.dataModel.Files.Names())
		return a, nil

	case kb.GetActionKey("new_conversation"):
		saveCmd := a.dataModel.AutoSave()
		a.stopReveals()
		a.dataModel.NewConversation()
		a.textarea.Reset()
		a.textarea.Focus()
		a.updateViewportContent(true)
		return a, tea.Batch(saveCmd, a.setFlash("Started a new conversation", false))

	case kb.GetActionKey("yank_last_answer"):
		text, ok := a.dataModel.LastAnswer()
		if !ok {
			return a, a.setFlash("No answer to copy yet", true)
		}
		return a, a.copyToClipboard(text, "Copied last answer")

	case kb.GetActionKey("yank_conversation"):
		if len(a.dataModel.Messages) == 0 {
			return a, a.setFlash("Nothing to copy yet", true)
		}
		return a, a.copyToClipboard(a.dataModel.Transcript(), "Copied conversation")

	case kb.GetActionKey("toggle_reveal"):
		if a.dataModel.ToggleReveal() {
			return a, a.setFlash("Reveal animation on", false)
		}
		return a, tea.Batch(a.finishReveals(), a.setFlash("Reveal animation off", false))

	case kb.GetActionKey("clear_input"):
		a.textarea.Reset()
		return a, nil

	case kb.GetActionKey("scroll_down"):
		a.viewport.LineDown(1)
		return a, nil
	case kb.GetActionKey("scroll_up"):
		a.viewport.LineUp(1)
		return a, nil
	case kb.GetActionKey("half_page_down"):
		a.viewport.HalfViewDown()
		return a, nil
	case kb.GetActionKey("half_page_up"):
		a.viewport.HalfViewUp()
		return a, nil
	case kb.GetActionKey("page_down"):
		a.viewport.ViewDown()
		return a, nil
	case kb.GetActionKey("page_up"):
		a.viewport.ViewUp()
		return a, nil
	case kb.GetActionKey("scroll_to_top"):
		a.viewport.GotoTop()
		return a, nil
	case kb.GetActionKey("scroll_to_bottom"):
		a.viewport.GotoBottom()
		return a, nil

	case "esc":
		if len(a.reveals) > 0 {
			return a, a.finishReveals()
		}
		return a, nil

	case "enter":
		return a.submitQuestion()
	}

	if a.dataModel.Generating {
		return a, nil
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

// quit saves the conversation and exits. The save runs before tea.Quit so
// it is not lost on exit.
func (a AppView) quit() (AppView, tea.Cmd) {
	if config.DebugLog != nil {
		config.DebugLog.Printf("[UI] quit: dirty=%v generating=%v", a.dataModel.Dirty, a.dataModel.Generating)
	}

	saveCmd := a.dataModel.AutoSave()
	a.dataModel.Shutdown()

	if saveCmd == nil {
		return a, tea.Quit
	}
	return a, tea.Sequence(saveCmd, tea.Quit)
}

func (a *AppView) copyToClipboard(text, done string) tea.Cmd {
	if err := clipboard.WriteAll(text); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] copyToClipboard: %v", err)
		}
		return a.setFlash("Clipboard unavailable: "+err.Error(), true)
	}
	return a.setFlash(done, false)
}

// setFlash shows a status toast and schedules its expiry
func (a *AppView) setFlash(text string, isError bool) tea.Cmd {
	a.flashSeq++
	a.flash = text
	a.flashError = isError

	seq := a.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return appmodel.FlashTickMsg{Seq: seq}
	})
}

func attachErrorMessage(err error, maxFiles int) string {
	if errors.Is(err, backend.ErrTooManyFiles) {
		return fmt.Sprintf("You can attach at most %s", pluralize(maxFiles, "file"))
	}
	return "Could not attach file: " + err.Error()
}
