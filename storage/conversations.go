package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrConversationNotFound = errors.New("conversation not found")

// Message is one persisted question or answer
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	// Names of the files the question was asked about
	Documents []string `json:"documents,omitempty"`
}

// Conversation is a named, ordered list of questions and answers
type Conversation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
	// Every document name referenced by the conversation, in first-use order
	Documents []string `json:"documents,omitempty"`
}

// ConversationMetadata is the lightweight form used for listing
type ConversationMetadata struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Documents    []string  `json:"documents,omitempty"`
}

// AddDocuments records document names, keeping first-use order and skipping duplicates
func (c *Conversation) AddDocuments(names ...string) {
	for _, name := range names {
		if !containsString(c.Documents, name) {
			c.Documents = append(c.Documents, name)
		}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ConversationStorage keeps one JSON file per conversation
type ConversationStorage struct {
	dir string
}

func NewConversationStorage(dataDir string) (*ConversationStorage, error) {
	dir := filepath.Join(dataDir, "conversations")

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create conversations directory: %w", err)
	}

	return &ConversationStorage{dir: dir}, nil
}

func (s *ConversationStorage) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save assigns an ID on first save and bumps UpdatedAt
func (s *ConversationStorage) Save(conv *Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}

	conv.UpdatedAt = time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = conv.UpdatedAt
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	// Replaced atomically via rename
	tmp := s.path(conv.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write conversation file: %w", err)
	}
	if err := os.Rename(tmp, s.path(conv.ID)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write conversation file: %w", err)
	}

	return nil
}

func (s *ConversationStorage) Load(id string) (*Conversation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", ErrConversationNotFound, id)
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
		}
		return nil, fmt.Errorf("failed to read conversation file: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}

	return &conv, nil
}

// List returns metadata for all conversations, newest first
func (s *ConversationStorage) List() ([]ConversationMetadata, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversations directory: %w", err)
	}

	var list []ConversationMetadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}

		var conv Conversation
		if err := json.Unmarshal(data, &conv); err != nil {
			continue // corrupted
		}

		list = append(list, ConversationMetadata{
			ID:           conv.ID,
			Name:         conv.Name,
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
			MessageCount: len(conv.Messages),
			Documents:    conv.Documents,
		})
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})

	return list, nil
}

func (s *ConversationStorage) Delete(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: invalid id %q", ErrConversationNotFound, id)
	}

	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
		}
		return fmt.Errorf("failed to delete conversation file: %w", err)
	}

	return nil
}

func (s *ConversationStorage) Rename(id, name string) error {
	conv, err := s.Load(id)
	if err != nil {
		return err
	}

	conv.Name = strings.TrimSpace(name)
	if err := s.Save(conv); err != nil {
		return fmt.Errorf("failed to save renamed conversation: %w", err)
	}

	return nil
}

// SaveCurrentID remembers the conversation that was open on exit
func (s *ConversationStorage) SaveCurrentID(id string) error {
	return os.WriteFile(filepath.Join(filepath.Dir(s.dir), "current_conversation.id"), []byte(id), 0600)
}

func (s *ConversationStorage) LoadCurrentID() (string, error) {
	data, err := os.ReadFile(filepath.Join(filepath.Dir(s.dir), "current_conversation.id"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// GenerateName derives a conversation name from the first question
func GenerateName(firstQuestion string) string {
	name := strings.Join(strings.Fields(firstQuestion), " ")
	if name == "" {
		return fmt.Sprintf("Conversation %s", time.Now().Format("Jan 2, 3:04 PM"))
	}

	runes := []rune(name)
	if len(runes) > 40 {
		name = strings.TrimSpace(string(runes[:40])) + "..."
	}
	return name
}
