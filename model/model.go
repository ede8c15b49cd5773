package model

import (
	"context"
	"time"

	"docchat/backend"
	"docchat/config"
	"docchat/storage"
)

// Model holds the application data and the operations on it. The UI owns
// presentation state only.
type Model struct {
	Config        *config.Config
	Client        *backend.Client
	Files         *backend.FileSet
	Conversations *storage.ConversationStorage
	Documents     *storage.DocumentStorage
	SearchIndex   *storage.SearchIndex

	Messages []Message
	Current  *storage.Conversation

	Generating bool
	Dirty      bool
	Quitting   bool

	Version string

	lastID    int64
	pendingID int64
	cancel    context.CancelFunc
	now       func() time.Time
}

// NewModel builds the model. Any storage may be nil, in which case the
// matching commands do nothing. last, when set, is restored into Messages.
func NewModel(cfg *config.Config, client *backend.Client, conversations *storage.ConversationStorage, documents *storage.DocumentStorage, last *storage.Conversation, version string) *Model {
	maxFiles := backend.DefaultMaxFiles
	if cfg != nil && cfg.MaxFiles > 0 {
		maxFiles = cfg.MaxFiles
	}

	m := &Model{
		Config:        cfg,
		Client:        client,
		Files:         backend.NewFileSet(maxFiles),
		Conversations: conversations,
		Documents:     documents,
		Version:       version,
		now:           time.Now,
	}
	if conversations != nil {
		m.SearchIndex = storage.NewSearchIndex(conversations)
	}

	if last != nil {
		m.ApplyConversation(last)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Model] NewModel: max files %d, restored %d messages", maxFiles, len(m.Messages))
	}

	return m
}

// nextID returns a millisecond timestamp that is strictly greater than the
// previous one
func (m *Model) nextID() int64 {
	id := m.now().UnixMilli()
	if id <= m.lastID {
		id = m.lastID + 1
	}
	m.lastID = id
	return id
}

func (m *Model) findMessage(id int64) int {
	for i := len(m.Messages) - 1; i >= 0; i-- {
		if m.Messages[i].ID == id {
			return i
		}
	}
	return -1
}

// MessageByID returns a pointer into Messages, or nil
func (m *Model) MessageByID(id int64) *Message {
	if i := m.findMessage(id); i >= 0 {
		return &m.Messages[i]
	}
	return nil
}

// RevealEnabled reports whether answers should animate
func (m *Model) RevealEnabled() bool {
	return m.Config != nil && m.Config.RevealEnabled
}

// ToggleReveal flips the reveal setting for this run and returns the new value
func (m *Model) ToggleReveal() bool {
	if m.Config == nil {
		return false
	}
	m.Config.RevealEnabled = !m.Config.RevealEnabled
	return m.Config.RevealEnabled
}

// Shutdown cancels an in-flight request and closes the documents index
func (m *Model) Shutdown() {
	m.Quitting = true
	m.CancelRequest()
	if m.Documents != nil {
		if err := m.Documents.Close(); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[Model] Shutdown: closing documents index: %v", err)
		}
	}
}
