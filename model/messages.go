package model

import (
	"docchat/backend"
	"docchat/storage"
)

// AnswerMsg carries the backend reply for the answer card MessageID
type AnswerMsg struct {
	MessageID int64
	Query     string
	Text      string
	Err       error
}

type FileAttachedMsg struct {
	File     backend.File
	Replaced bool
	Err      error
}

type DocumentsListMsg struct {
	Documents []storage.Document
	Err       error
}

type DocumentDeletedMsg struct {
	ID  int64
	Err error
}

type ConversationsListMsg struct {
	Conversations []storage.ConversationMetadata
	Err           error
}

type ConversationLoadedMsg struct {
	Conversation *storage.Conversation
	Err          error
}

type ConversationSavedMsg struct {
	Err error
}

type ConversationDeletedMsg struct {
	ID  string
	Err error
}

type ConversationExportedMsg struct {
	Path string
	Err  error
}

type SearchResultsMsg struct {
	Query   string
	Matches []storage.MessageMatch
	Err     error
}

// FlashTickMsg expires the status toast with the same sequence number
type FlashTickMsg struct {
	Seq int
}
