package model

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"docchat/config"
	"docchat/storage"
)

var errNoConversationStorage = errors.New("conversation storage not initialized")

// NewConversation clears the view and starts an unsaved conversation. The
// attached files stay attached. A running request is cancelled.
func (m *Model) NewConversation() {
	m.CancelRequest()
	m.Messages = nil
	m.Current = nil
	m.Dirty = false
}

// ApplyConversation replaces the shown messages with a stored conversation.
// Restored answers count as revealed.
func (m *Model) ApplyConversation(conv *storage.Conversation) {
	m.CancelRequest()
	m.Current = conv
	m.Messages = make([]Message, 0, len(conv.Messages))
	for _, sMsg := range conv.Messages {
		m.Messages = append(m.Messages, Message{
			ID:        m.nextID(),
			Text:      sMsg.Content,
			IsUser:    sMsg.Role == storage.RoleUser,
			Timestamp: sMsg.Timestamp,
			Revealed:  true,
			Documents: sMsg.Documents,
		})
	}
	m.Dirty = false
}

// snapshot copies the finished messages into the current conversation,
// creating it on first use
func (m *Model) snapshot() *storage.Conversation {
	if m.Current == nil {
		var first string
		for _, msg := range m.Messages {
			if msg.IsUser {
				first = msg.Text
				break
			}
		}
		m.Current = &storage.Conversation{Name: storage.GenerateName(first)}
	}

	messages := make([]storage.Message, 0, len(m.Messages))
	for _, msg := range m.Messages {
		if msg.IsGenerating {
			continue
		}
		messages = append(messages, storage.Message{
			Role:      msg.Role(),
			Content:   msg.Text,
			Timestamp: msg.Timestamp,
			Documents: msg.Documents,
		})
		if msg.IsUser {
			m.Current.AddDocuments(msg.Documents...)
		}
	}
	m.Current.Messages = messages

	conv := *m.Current
	conv.Messages = append([]storage.Message(nil), messages...)
	conv.Documents = append([]string(nil), m.Current.Documents...)
	return &conv
}

// SaveConversation writes the current conversation. The Cmd works on a copy
// so the model can keep changing while it runs.
func (m *Model) SaveConversation() tea.Cmd {
	if m.Conversations == nil || len(m.Messages) == 0 {
		return nil
	}

	conv := m.snapshot()
	current := m.Current
	conversations := m.Conversations
	m.Dirty = false

	return func() tea.Msg {
		if err := conversations.Save(conv); err != nil {
			return ConversationSavedMsg{Err: err}
		}
		// Save assigns the ID and timestamps on the copy
		current.ID = conv.ID
		current.CreatedAt = conv.CreatedAt
		current.UpdatedAt = conv.UpdatedAt
		if err := conversations.SaveCurrentID(conv.ID); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[Model] SaveConversation: remembering current id: %v", err)
		}
		return ConversationSavedMsg{}
	}
}

// AutoSave saves only when something changed since the last save
func (m *Model) AutoSave() tea.Cmd {
	if !m.Dirty {
		return nil
	}
	return m.SaveConversation()
}

func (m *Model) ListConversations() tea.Cmd {
	if m.Conversations == nil {
		return nil
	}
	conversations := m.Conversations
	return func() tea.Msg {
		list, err := conversations.List()
		return ConversationsListMsg{Conversations: list, Err: err}
	}
}

func (m *Model) LoadConversation(id string) tea.Cmd {
	if m.Current != nil && m.Current.ID == id {
		current := m.Current
		return func() tea.Msg {
			return ConversationLoadedMsg{Conversation: current}
		}
	}

	conversations := m.Conversations
	return func() tea.Msg {
		if conversations == nil {
			return ConversationLoadedMsg{Err: errNoConversationStorage}
		}
		conv, err := conversations.Load(id)
		if err != nil {
			return ConversationLoadedMsg{Err: err}
		}
		if err := conversations.SaveCurrentID(id); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[Model] LoadConversation: remembering current id: %v", err)
		}
		return ConversationLoadedMsg{Conversation: conv}
	}
}

// DeleteConversation removes a stored conversation. Deleting the open one
// also clears the view.
func (m *Model) DeleteConversation(id string) tea.Cmd {
	if m.Current != nil && m.Current.ID == id {
		m.NewConversation()
	}

	conversations := m.Conversations
	return func() tea.Msg {
		if conversations == nil {
			return ConversationDeletedMsg{ID: id, Err: errNoConversationStorage}
		}
		return ConversationDeletedMsg{ID: id, Err: conversations.Delete(id)}
	}
}

func (m *Model) RenameConversation(id, name string) tea.Cmd {
	if m.Current != nil && m.Current.ID == id {
		m.Current.Name = name
	}

	conversations := m.Conversations
	return func() tea.Msg {
		if conversations == nil {
			return ConversationsListMsg{Err: errNoConversationStorage}
		}
		if err := conversations.Rename(id, name); err != nil {
			return ConversationsListMsg{Err: err}
		}
		list, err := conversations.List()
		return ConversationsListMsg{Conversations: list, Err: err}
	}
}

// ExportConversation writes the shown conversation to path. An empty path
// picks a timestamped name in the exports directory.
func (m *Model) ExportConversation(path string, format storage.ExportFormat) tea.Cmd {
	if len(m.Messages) == 0 {
		return func() tea.Msg {
			return ConversationExportedMsg{Err: fmt.Errorf("nothing to export")}
		}
	}

	conv := m.snapshot()
	if path == "" {
		dir := "."
		if m.Config != nil {
			dir = config.ExportsDir(m.Config.DataDir())
		}
		path = storage.GenerateExportPath(dir, conv.Name, format)
	}

	return func() tea.Msg {
		if err := storage.Export(conv, path, format); err != nil {
			return ConversationExportedMsg{Path: path, Err: err}
		}
		return ConversationExportedMsg{Path: path}
	}
}

// SearchConversations searches every stored conversation
func (m *Model) SearchConversations(query string) tea.Cmd {
	index := m.SearchIndex
	return func() tea.Msg {
		if index == nil {
			return SearchResultsMsg{Query: query, Err: errNoConversationStorage}
		}
		matches, err := index.SearchAll(query)
		return SearchResultsMsg{Query: query, Matches: matches, Err: err}
	}
}
