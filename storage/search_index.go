package storage

import (
	"strings"
	"time"
)

const previewLength = 100

// MessageMatch is a message that contains the search query
type MessageMatch struct {
	ConversationID   string
	ConversationName string
	MessageIndex     int
	Role             string
	Content          string
	Preview          string
	Timestamp        time.Time
}

type SearchIndex struct {
	storage *ConversationStorage
}

func NewSearchIndex(storage *ConversationStorage) *SearchIndex {
	return &SearchIndex{storage: storage}
}

// SearchMessages finds case-insensitive substring matches in one conversation
func SearchMessages(conv *Conversation, query string) []MessageMatch {
	query = strings.TrimSpace(query)
	if query == "" || conv == nil {
		return []MessageMatch{}
	}

	queryLower := strings.ToLower(query)
	matches := []MessageMatch{}

	for i, msg := range conv.Messages {
		idx := strings.Index(strings.ToLower(msg.Content), queryLower)
		if idx < 0 {
			continue
		}

		matches = append(matches, MessageMatch{
			ConversationID:   conv.ID,
			ConversationName: conv.Name,
			MessageIndex:     i,
			Role:             msg.Role,
			Content:          msg.Content,
			Preview:          preview(msg.Content, idx),
			Timestamp:        msg.Timestamp,
		})
	}

	return matches
}

// SearchAll searches every stored conversation, newest conversation first.
// Unreadable conversation files are skipped.
func (si *SearchIndex) SearchAll(query string) ([]MessageMatch, error) {
	if strings.TrimSpace(query) == "" {
		return []MessageMatch{}, nil
	}

	list, err := si.storage.List()
	if err != nil {
		return nil, err
	}

	matches := []MessageMatch{}
	for _, meta := range list {
		conv, err := si.storage.Load(meta.ID)
		if err != nil {
			continue
		}
		matches = append(matches, SearchMessages(conv, query)...)
	}

	return matches, nil
}

// preview is a single-line excerpt of content around byte offset at
func preview(content string, at int) string {
	at = min(at, len(content))
	start := 0
	if at > previewLength/2 {
		start = at - previewLength/2
		for start < len(content) && !isRuneStart(content[start]) {
			start++
		}
	}
	runes := []rune(content[start:])

	truncated := len(runes) > previewLength
	if truncated {
		runes = runes[:previewLength]
	}

	out := strings.Join(strings.Fields(string(runes)), " ")
	if start > 0 {
		out = "..." + out
	}
	if truncated {
		out += "..."
	}
	return out
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
