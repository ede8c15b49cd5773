package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"docchat/backend"
	"docchat/config"
	appmodel "docchat/model"
)

// handleModelMsg applies the results of model commands
func (a AppView) handleModelMsg(msg tea.Msg) (AppView, tea.Cmd) {
	switch msg := msg.(type) {
	case appmodel.FileAttachedMsg:
		if msg.Err != nil {
			return a, a.setFlash(attachErrorMessage(msg.Err, a.dataModel.Files.Max()), true)
		}
		if msg.Replaced {
			return a, a.setFlash(fmt.Sprintf("Replaced %s (%s)", msg.File.Name, backend.FormatSize(msg.File.Size)), false)
		}
		return a, a.setFlash(fmt.Sprintf("Attached %s (%s)", msg.File.Name, backend.FormatSize(msg.File.Size)), false)

	case appmodel.DocumentsListMsg:
		if msg.Err != nil {
			a.showInfo("Recent Documents", "Could not read the documents index: "+msg.Err.Error(), ModalTypeError)
			return a, nil
		}
		a.documents = msg.Documents
		a.documentList.SetItems(documentNames(a.documents))
		return a, nil

	case appmodel.DocumentDeletedMsg:
		if msg.Err != nil {
			return a, a.setFlash("Could not forget document: "+msg.Err.Error(), true)
		}
		return a, a.dataModel.FetchRecentDocuments()

	case appmodel.ConversationsListMsg:
		if msg.Err != nil {
			a.showInfo("Conversations", "Could not list conversations: "+msg.Err.Error(), ModalTypeError)
			return a, nil
		}
		a.conversations = msg.Conversations
		a.conversationList.SetItems(conversationNames(a.conversations))
		return a, nil

	case appmodel.ConversationLoadedMsg:
		if msg.Err != nil {
			a.showInfo("Conversations", "Could not open conversation: "+msg.Err.Error(), ModalTypeError)
			return a, nil
		}
		if msg.Conversation == a.dataModel.Current {
			return a, nil
		}
		saveCmd := a.dataModel.AutoSave()
		a.stopReveals()
		a.dataModel.ApplyConversation(msg.Conversation)
		a.textarea.Focus()
		a.updateViewportContent(true)
		return a, tea.Batch(saveCmd, a.setFlash("Opened "+msg.Conversation.Name, false))

	case appmodel.ConversationSavedMsg:
		if msg.Err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[UI] conversation save failed: %v", msg.Err)
			}
			return a, a.setFlash("Could not save conversation: "+msg.Err.Error(), true)
		}
		return a, nil

	case appmodel.ConversationDeletedMsg:
		if msg.Err != nil {
			return a, a.setFlash("Could not delete conversation: "+msg.Err.Error(), true)
		}
		return a, a.dataModel.ListConversations()

	case appmodel.ConversationExportedMsg:
		if msg.Err != nil {
			a.showInfo("Export", "Export failed: "+msg.Err.Error(), ModalTypeError)
			return a, nil
		}
		return a, a.setFlash("Exported to "+msg.Path, false)

	case appmodel.SearchResultsMsg:
		a.searchedFor = msg.Query
		a.searchSelected = 0
		a.searchErr = ""
		a.searchResults = msg.Matches
		if msg.Err != nil {
			a.searchErr = msg.Err.Error()
			a.searchResults = nil
		}
		return a, nil
	}

	return a, nil
}
