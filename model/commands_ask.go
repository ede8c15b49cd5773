package model

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"docchat/backend"
	"docchat/config"
)

// NoFilesMessage is shown when a question is asked with nothing attached
const NoFilesMessage = "Please upload at least one file before asking a question"

// ErrNoFiles is returned by Submit when no file is attached; show NoFilesMessage
var ErrNoFiles = backend.ErrNoFiles

// Submit starts a question about the attached files. Blank input or a
// question already in flight is a no-op: it returns a nil Cmd and no error.
// On success a question card and an empty generating answer card are appended
// and the returned Cmd yields an AnswerMsg.
func (m *Model) Submit(query string) (tea.Cmd, error) {
	if strings.TrimSpace(query) == "" || m.Generating {
		return nil, nil
	}

	files := m.Files.Files()
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	names := m.Files.Names()
	now := m.now()

	question := Message{
		ID:        m.nextID(),
		Text:      query,
		IsUser:    true,
		Timestamp: now,
		Documents: names,
	}
	answer := Message{
		ID:           m.nextID(),
		IsGenerating: true,
		Timestamp:    now,
	}

	m.Messages = append(m.Messages, question, answer)
	m.Generating = true

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.pendingID = answer.ID

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Model] Submit: answer %d, %d files (%s), query length %d",
			answer.ID, len(files), backend.FormatSize(m.Files.TotalSize()), len(query))
	}

	client := m.Client
	answerID := answer.ID
	return func() tea.Msg {
		defer cancel()

		if client == nil {
			return AnswerMsg{MessageID: answerID, Query: query, Err: errors.New("no backend configured")}
		}

		res, err := client.Process(ctx, files, query)
		if err != nil {
			return AnswerMsg{MessageID: answerID, Query: query, Err: err}
		}
		return AnswerMsg{MessageID: answerID, Query: res.Query, Text: res.Text}
	}, nil
}

// ApplyAnswer fills the answer card in place. A failed request shows the
// generic error text. It returns false when the card no longer exists, for
// example after switching conversations while a request was running.
func (m *Model) ApplyAnswer(msg AnswerMsg) bool {
	if msg.MessageID == m.pendingID {
		m.Generating = false
		m.cancel = nil
		m.pendingID = 0
	}

	i := m.findMessage(msg.MessageID)
	if i < 0 {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Model] ApplyAnswer: answer %d is gone, dropping reply", msg.MessageID)
		}
		return false
	}

	answer := &m.Messages[i]
	answer.IsGenerating = false
	answer.Timestamp = m.now()

	if msg.Err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Model] ApplyAnswer: answer %d failed: %v", msg.MessageID, msg.Err)
		}
		answer.Text = backend.DisplayMessage(msg.Err)
		answer.Failed = true
		answer.Revealed = true
	} else {
		answer.Text = msg.Text
		answer.Revealed = !m.RevealEnabled()
	}

	m.Dirty = true
	return true
}

// CancelRequest aborts the in-flight question, if any. Its AnswerMsg still
// arrives, carrying context.Canceled, and fills the answer card if it is
// still shown.
func (m *Model) CancelRequest() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.Generating = false
	m.pendingID = 0
}

// MarkRevealed records that the reveal animation of a message finished
func (m *Model) MarkRevealed(id int64) {
	if msg := m.MessageByID(id); msg != nil {
		msg.Revealed = true
	}
}

// LastAnswer returns the text of the newest finished answer
func (m *Model) LastAnswer() (string, bool) {
	for i := len(m.Messages) - 1; i >= 0; i-- {
		msg := m.Messages[i]
		if !msg.IsUser && !msg.IsGenerating {
			return msg.Text, true
		}
	}
	return "", false
}

// Transcript renders the conversation as plain text for the clipboard
func (m *Model) Transcript() string {
	var b strings.Builder
	for _, msg := range m.Messages {
		if msg.IsGenerating {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if msg.IsUser {
			b.WriteString("You: ")
		} else {
			b.WriteString("Answer: ")
		}
		b.WriteString(msg.Text)
	}
	return b.String()
}
