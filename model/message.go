package model

import (
	"time"

	"docchat/storage"
)

// Message is one card in the conversation view. Answers are created empty
// with IsGenerating set and filled in place when the reply arrives.
type Message struct {
	ID           int64
	Text         string
	IsUser       bool
	IsGenerating bool
	Timestamp    time.Time
	// Revealed is set once the reveal animation finished or was skipped
	Revealed bool
	// Failed answers carry the generic error text instead of a reply
	Failed bool
	// Files the question was asked about (questions only)
	Documents []string
}

// Role returns the storage role of the message
func (m Message) Role() string {
	if m.IsUser {
		return storage.RoleUser
	}
	return storage.RoleAssistant
}
