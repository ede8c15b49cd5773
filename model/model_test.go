package model

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docchat/backend"
	"docchat/config"
	"docchat/devbackend"
	"docchat/storage"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()

	srv := httptest.NewServer(devbackend.New(":0", "", nil).Handler())
	t.Cleanup(srv.Close)

	client, err := backend.NewClient(srv.URL, "", 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	dir := t.TempDir()
	conversations, err := storage.NewConversationStorage(dir)
	if err != nil {
		t.Fatalf("NewConversationStorage: %v", err)
	}
	documents, err := storage.NewDocumentStorage(dir)
	if err != nil {
		t.Fatalf("NewDocumentStorage: %v", err)
	}
	t.Cleanup(func() { documents.Close() })

	cfg := &config.Config{DataDirectory: dir, MaxFiles: 2, RevealEnabled: true}
	return NewModel(cfg, client, conversations, documents, nil, "test")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func attach(t *testing.T, m *Model, path string) FileAttachedMsg {
	t.Helper()
	msg, ok := m.AttachFile(path)().(FileAttachedMsg)
	if !ok {
		t.Fatal("AttachFile did not return a FileAttachedMsg")
	}
	return msg
}

func TestSubmitNoOps(t *testing.T) {
	m := newTestModel(t)
	attach(t, m, writeFile(t, "a.txt", "alpha"))

	tests := []struct {
		name       string
		query      string
		generating bool
	}{
		{"empty", "", false},
		{"whitespace", "  \n\t ", false},
		{"already generating", "what is this?", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.Generating = tt.generating
			defer func() { m.Generating = false }()

			cmd, err := m.Submit(tt.query)
			if err != nil {
				t.Errorf("Submit() error = %v, want nil", err)
			}
			if cmd != nil {
				t.Error("Submit() returned a command, want nil")
			}
			if len(m.Messages) != 0 {
				t.Errorf("got %d messages, want 0", len(m.Messages))
			}
		})
	}
}

func TestSubmitWithoutFiles(t *testing.T) {
	m := newTestModel(t)

	cmd, err := m.Submit("what is this?")
	if !errors.Is(err, ErrNoFiles) {
		t.Fatalf("Submit() error = %v, want ErrNoFiles", err)
	}
	if cmd != nil {
		t.Error("Submit() returned a command")
	}
	if m.Generating {
		t.Error("Generating set without a request")
	}
	if len(m.Messages) != 0 {
		t.Errorf("got %d messages, want 0", len(m.Messages))
	}
}

func TestSubmitRoundTrip(t *testing.T) {
	m := newTestModel(t)
	attach(t, m, writeFile(t, "report.txt", "Q3 revenue grew"))

	cmd, err := m.Submit("How did revenue change?")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if cmd == nil {
		t.Fatal("Submit returned no command")
	}

	if len(m.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(m.Messages))
	}
	question, answer := m.Messages[0], m.Messages[1]
	if !question.IsUser || question.Text != "How did revenue change?" {
		t.Errorf("question = %+v", question)
	}
	if len(question.Documents) != 1 || question.Documents[0] != "report.txt" {
		t.Errorf("question documents = %v", question.Documents)
	}
	if answer.IsUser || !answer.IsGenerating || answer.Text != "" {
		t.Errorf("answer placeholder = %+v", answer)
	}
	if answer.ID <= question.ID {
		t.Errorf("answer id %d not after question id %d", answer.ID, question.ID)
	}
	if !m.Generating {
		t.Error("Generating not set")
	}

	msg, ok := cmd().(AnswerMsg)
	if !ok {
		t.Fatal("command did not return an AnswerMsg")
	}
	if msg.Err != nil {
		t.Fatalf("AnswerMsg.Err = %v", msg.Err)
	}
	if msg.MessageID != answer.ID {
		t.Errorf("MessageID = %d, want %d", msg.MessageID, answer.ID)
	}

	if !m.ApplyAnswer(msg) {
		t.Fatal("ApplyAnswer returned false")
	}
	got := m.Messages[1]
	if got.IsGenerating || got.Failed {
		t.Errorf("answer after apply = %+v", got)
	}
	if !strings.Contains(got.Text, "report.txt") {
		t.Errorf("answer text %q does not mention the file", got.Text)
	}
	if got.Revealed {
		t.Error("answer marked revealed while reveal is enabled")
	}
	if m.Generating {
		t.Error("Generating still set")
	}
	if !m.Dirty {
		t.Error("Dirty not set")
	}
	if len(m.Messages) != 2 {
		t.Errorf("ApplyAnswer changed the message count to %d", len(m.Messages))
	}
}

func TestApplyAnswerError(t *testing.T) {
	m := newTestModel(t)
	attach(t, m, writeFile(t, "a.txt", "alpha"))

	if _, err := m.Submit("q"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	id := m.Messages[1].ID

	m.ApplyAnswer(AnswerMsg{MessageID: id, Err: &backend.StatusError{StatusCode: 500}})

	got := m.Messages[1]
	if got.Text != backend.ErrorDisplayMessage {
		t.Errorf("Text = %q, want %q", got.Text, backend.ErrorDisplayMessage)
	}
	if !got.Failed || !got.Revealed || got.IsGenerating {
		t.Errorf("failed answer = %+v", got)
	}
	if m.Generating {
		t.Error("Generating still set after failure")
	}
}

func TestStaleAnswerIsDropped(t *testing.T) {
	m := newTestModel(t)
	attach(t, m, writeFile(t, "a.txt", "alpha"))

	if _, err := m.Submit("q"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	stale := m.Messages[1].ID

	m.NewConversation()
	if m.Generating {
		t.Fatal("NewConversation left Generating set")
	}

	if m.ApplyAnswer(AnswerMsg{MessageID: stale, Err: context.Canceled}) {
		t.Error("ApplyAnswer applied a reply to a removed card")
	}
	if len(m.Messages) != 0 {
		t.Errorf("got %d messages, want 0", len(m.Messages))
	}
}

func TestAttachFile(t *testing.T) {
	m := newTestModel(t)
	dir := t.TempDir()
	paths := make([]string, 3)
	for i, name := range []string{"a.txt", "b.txt", "c.txt"} {
		paths[i] = filepath.Join(dir, name)
		if err := os.WriteFile(paths[i], []byte(name), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	if msg := attach(t, m, paths[0]); msg.Err != nil || msg.Replaced {
		t.Fatalf("first attach = %+v", msg)
	}
	if msg := attach(t, m, paths[0]); msg.Err != nil || !msg.Replaced {
		t.Errorf("re-attach = %+v, want replaced", msg)
	}
	if msg := attach(t, m, paths[1]); msg.Err != nil {
		t.Fatalf("second attach: %v", msg.Err)
	}
	if msg := attach(t, m, paths[2]); !errors.Is(msg.Err, backend.ErrTooManyFiles) {
		t.Errorf("third attach error = %v, want ErrTooManyFiles", msg.Err)
	}
	if m.Files.Len() != 2 {
		t.Errorf("Files.Len() = %d, want 2", m.Files.Len())
	}

	if msg := attach(t, m, filepath.Join(dir, "missing.txt")); msg.Err == nil {
		t.Error("attaching a missing file succeeded")
	}

	docs, err := m.Documents.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("indexed %d documents, want 2", len(docs))
	}
	for _, d := range docs {
		if d.Name == "a.txt" && d.UseCount != 2 {
			t.Errorf("a.txt use count = %d, want 2", d.UseCount)
		}
	}

	removed, err := m.RemoveFile(0)
	if err != nil || removed.Name != "a.txt" {
		t.Errorf("RemoveFile(0) = %v, %v", removed.Name, err)
	}
	if _, err := m.RemoveFile(5); err == nil {
		t.Error("RemoveFile(5) succeeded")
	}
}

func TestRecentDocuments(t *testing.T) {
	m := newTestModel(t)
	path := writeFile(t, "notes.md", "# notes")
	attach(t, m, path)

	msg, ok := m.FetchRecentDocuments()().(DocumentsListMsg)
	if !ok || msg.Err != nil || len(msg.Documents) != 1 {
		t.Fatalf("FetchRecentDocuments = %+v", msg)
	}
	doc := msg.Documents[0]

	m.Files.Clear()
	if got := m.AttachRecent(doc)().(FileAttachedMsg); got.Err != nil || got.File.Name != "notes.md" {
		t.Errorf("AttachRecent = %+v", got)
	}

	if got := m.ForgetDocument(doc.ID)().(DocumentDeletedMsg); got.Err != nil {
		t.Errorf("ForgetDocument: %v", got.Err)
	}
	if got := m.ForgetDocument(doc.ID)().(DocumentDeletedMsg); !errors.Is(got.Err, storage.ErrDocumentNotFound) {
		t.Errorf("second ForgetDocument error = %v", got.Err)
	}
}

func ask(t *testing.T, m *Model, query string) {
	t.Helper()
	cmd, err := m.Submit(query)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	m.ApplyAnswer(cmd().(AnswerMsg))
}

func TestSaveAndLoadConversation(t *testing.T) {
	m := newTestModel(t)
	attach(t, m, writeFile(t, "contract.pdf", "terms"))
	ask(t, m, "What are the payment terms?")

	saved, ok := m.AutoSave()().(ConversationSavedMsg)
	if !ok || saved.Err != nil {
		t.Fatalf("AutoSave = %+v", saved)
	}
	if m.Dirty {
		t.Error("Dirty still set after save")
	}
	if m.AutoSave() != nil {
		t.Error("AutoSave without changes returned a command")
	}
	if m.Current == nil || m.Current.ID == "" {
		t.Fatal("current conversation has no id after save")
	}
	id := m.Current.ID
	if m.Current.Name != "What are the payment terms?" {
		t.Errorf("Name = %q", m.Current.Name)
	}

	list := m.ListConversations()().(ConversationsListMsg)
	if list.Err != nil || len(list.Conversations) != 1 {
		t.Fatalf("ListConversations = %+v", list)
	}

	m.NewConversation()
	if len(m.Messages) != 0 || m.Current != nil {
		t.Fatal("NewConversation did not clear the view")
	}

	loaded := m.LoadConversation(id)().(ConversationLoadedMsg)
	if loaded.Err != nil {
		t.Fatalf("LoadConversation: %v", loaded.Err)
	}
	m.ApplyConversation(loaded.Conversation)

	if len(m.Messages) != 2 {
		t.Fatalf("restored %d messages, want 2", len(m.Messages))
	}
	if !m.Messages[0].IsUser || m.Messages[1].IsUser {
		t.Error("restored roles are wrong")
	}
	for _, msg := range m.Messages {
		if !msg.Revealed {
			t.Errorf("restored message %d not revealed", msg.ID)
		}
	}
	if docs := m.Current.Documents; len(docs) != 1 || docs[0] != "contract.pdf" {
		t.Errorf("conversation documents = %v", docs)
	}

	current, err := m.Conversations.LoadCurrentID()
	if err != nil || current != id {
		t.Errorf("LoadCurrentID = %q, %v, want %q", current, err, id)
	}
}

func TestDeleteAndRenameConversation(t *testing.T) {
	m := newTestModel(t)
	attach(t, m, writeFile(t, "a.txt", "alpha"))
	ask(t, m, "first question")
	m.SaveConversation()()
	id := m.Current.ID

	renamed := m.RenameConversation(id, "Renamed")().(ConversationsListMsg)
	if renamed.Err != nil || renamed.Conversations[0].Name != "Renamed" {
		t.Errorf("RenameConversation = %+v", renamed)
	}
	if m.Current.Name != "Renamed" {
		t.Errorf("current name = %q", m.Current.Name)
	}

	deleted := m.DeleteConversation(id)().(ConversationDeletedMsg)
	if deleted.Err != nil {
		t.Fatalf("DeleteConversation: %v", deleted.Err)
	}
	if m.Current != nil || len(m.Messages) != 0 {
		t.Error("deleting the open conversation did not clear the view")
	}

	missing := m.LoadConversation(id)().(ConversationLoadedMsg)
	if !errors.Is(missing.Err, storage.ErrConversationNotFound) {
		t.Errorf("LoadConversation after delete error = %v", missing.Err)
	}
}

func TestExportConversation(t *testing.T) {
	m := newTestModel(t)

	if got := m.ExportConversation("", storage.ExportJSON)().(ConversationExportedMsg); got.Err == nil {
		t.Error("exporting an empty conversation succeeded")
	}

	attach(t, m, writeFile(t, "a.txt", "alpha"))
	ask(t, m, "summarize")

	tests := []struct {
		name   string
		format storage.ExportFormat
		want   string
	}{
		{"json", storage.ExportJSON, `"role": "user"`},
		{"html", storage.ExportHTML, "You</h2>"},
		{"markdown", storage.ExportMarkdown, "## You"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.ExportConversation("", tt.format)().(ConversationExportedMsg)
			if got.Err != nil {
				t.Fatalf("ExportConversation: %v", got.Err)
			}
			if !strings.HasPrefix(got.Path, config.ExportsDir(m.Config.DataDir())) {
				t.Errorf("Path = %q, not in the exports directory", got.Path)
			}
			data, err := os.ReadFile(got.Path)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("export does not contain %q:\n%s", tt.want, data)
			}
		})
	}
}

func TestSearchConversations(t *testing.T) {
	m := newTestModel(t)
	attach(t, m, writeFile(t, "a.txt", "alpha"))
	ask(t, m, "Where is the Invoice total?")
	m.SaveConversation()()

	got := m.SearchConversations("invoice")().(SearchResultsMsg)
	if got.Err != nil {
		t.Fatalf("SearchConversations: %v", got.Err)
	}
	if len(got.Matches) == 0 {
		t.Fatal("no matches")
	}
	if got.Matches[0].ConversationID != m.Current.ID {
		t.Errorf("match conversation = %q, want %q", got.Matches[0].ConversationID, m.Current.ID)
	}
}

func TestLastAnswerAndTranscript(t *testing.T) {
	m := newTestModel(t)
	if _, ok := m.LastAnswer(); ok {
		t.Error("LastAnswer on an empty conversation reported ok")
	}

	m.Messages = []Message{
		{ID: 1, Text: "q1", IsUser: true},
		{ID: 2, Text: "a1"},
		{ID: 3, Text: "q2", IsUser: true},
		{ID: 4, IsGenerating: true},
	}

	if got, ok := m.LastAnswer(); !ok || got != "a1" {
		t.Errorf("LastAnswer() = %q, %v, want a1", got, ok)
	}
	if got, want := m.Transcript(), "You: q1\n\nAnswer: a1\n\nYou: q2"; got != want {
		t.Errorf("Transcript() = %q, want %q", got, want)
	}
}

func TestNextIDIsMonotonic(t *testing.T) {
	m := &Model{now: func() time.Time { return time.UnixMilli(1000) }}

	prev := m.nextID()
	for i := 0; i < 5; i++ {
		id := m.nextID()
		if id <= prev {
			t.Fatalf("nextID() = %d after %d", id, prev)
		}
		prev = id
	}
}
