package model

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"docchat/backend"
	"docchat/config"
	"docchat/storage"
)

// recentDocumentsLimit bounds the recent documents picker and the index size
const recentDocumentsLimit = 200

// AttachFile loads path and adds it to the attached files. The file is also
// recorded in the documents index. Indexing failures are logged, not returned.
func (m *Model) AttachFile(path string) tea.Cmd {
	files := m.Files
	documents := m.Documents

	return func() tea.Msg {
		f, err := backend.LoadFile(path)
		if err != nil {
			return FileAttachedMsg{Err: err}
		}

		replaced := false
		for _, name := range files.Names() {
			if name == f.Name {
				replaced = true
				break
			}
		}

		if err := files.Add(f); err != nil {
			return FileAttachedMsg{File: f, Err: err}
		}

		if documents != nil {
			recordDocument(documents, f)
		}

		return FileAttachedMsg{File: f, Replaced: replaced}
	}
}

// AttachRecent re-attaches a document from the index by reading it from its
// recorded path again
func (m *Model) AttachRecent(doc storage.Document) tea.Cmd {
	return m.AttachFile(doc.Path)
}

func recordDocument(documents *storage.DocumentStorage, f backend.File) {
	_, err := documents.Record(storage.Document{
		Name:        f.Name,
		Path:        f.Path,
		Size:        f.Size,
		ContentType: f.ContentType,
		SHA256:      storage.Checksum(f.Data),
	})
	if err == nil {
		_, err = documents.Prune(recentDocumentsLimit)
	}
	if err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Model] recordDocument: %s: %v", f.Path, err)
	}
}

// RemoveFile detaches the file at index i
func (m *Model) RemoveFile(i int) (backend.File, error) {
	f, ok := m.Files.Remove(i)
	if !ok {
		return backend.File{}, fmt.Errorf("no attached file at position %d", i+1)
	}
	return f, nil
}

func (m *Model) FetchRecentDocuments() tea.Cmd {
	if m.Documents == nil {
		return nil
	}
	documents := m.Documents
	return func() tea.Msg {
		docs, err := documents.Recent(recentDocumentsLimit)
		return DocumentsListMsg{Documents: docs, Err: err}
	}
}

// ForgetDocument removes a document from the index. The file on disk is untouched.
func (m *Model) ForgetDocument(id int64) tea.Cmd {
	if m.Documents == nil {
		return nil
	}
	documents := m.Documents
	return func() tea.Msg {
		return DocumentDeletedMsg{ID: id, Err: documents.Delete(id)}
	}
}
