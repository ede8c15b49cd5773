package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

type ExportFormat string

const (
	ExportJSON     ExportFormat = "json"
	ExportHTML     ExportFormat = "html"
	ExportMarkdown ExportFormat = "md"
)

// ParseExportFormat accepts a format name or a file extension
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "json":
		return ExportJSON, nil
	case "html", "htm":
		return ExportHTML, nil
	case "md", "markdown":
		return ExportMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q", s)
	}
}

// SanitizeFilename replaces characters that are invalid in filenames
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ', '\n', '\r', '\t':
			return '-'
		}
		return r
	}, name)

	name = strings.Trim(name, "-.")

	if runes := []rune(name); len(runes) > 50 {
		name = string(runes[:50])
	}

	if name == "" {
		name = "conversation"
	}

	return name
}

// GenerateExportPath returns a timestamped file name under dir
func GenerateExportPath(dir, conversationName string, format ExportFormat) string {
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("docchat-%s-%s.%s", SanitizeFilename(conversationName), timestamp, format)
	return filepath.Join(dir, filename)
}

// Export writes conv to path in the given format
func Export(conv *Conversation, path string, format ExportFormat) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case ExportJSON:
		data, err = json.MarshalIndent(conv, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal conversation: %w", err)
		}
	case ExportMarkdown:
		data = []byte(ToMarkdown(conv))
	case ExportHTML:
		data = ToHTML(conv)
	default:
		return fmt.Errorf("unsupported export format: %q", format)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// ToMarkdown renders a conversation as a markdown transcript. Answers are
// already markdown and are copied as-is.
func ToMarkdown(conv *Conversation) string {
	var b strings.Builder

	name := conv.Name
	if name == "" {
		name = "Conversation"
	}
	fmt.Fprintf(&b, "# %s\n\n", name)

	if len(conv.Documents) > 0 {
		b.WriteString("Documents:\n\n")
		for _, doc := range conv.Documents {
			fmt.Fprintf(&b, "- %s\n", doc)
		}
		b.WriteString("\n")
	}

	for _, msg := range conv.Messages {
		title := "Answer"
		if msg.Role == RoleUser {
			title = "You"
		}
		fmt.Fprintf(&b, "---\n\n## %s\n\n", title)
		if !msg.Timestamp.IsZero() {
			fmt.Fprintf(&b, "*%s*\n\n", msg.Timestamp.Format("Jan 2, 2006 3:04 PM"))
		}
		if msg.Role == RoleUser && len(msg.Documents) > 0 {
			fmt.Fprintf(&b, "Asked about: %s\n\n", strings.Join(msg.Documents, ", "))
		}
		b.WriteString(strings.TrimSpace(msg.Content))
		b.WriteString("\n\n")
	}

	return b.String()
}

// ToHTML renders the markdown transcript as a standalone HTML page. Raw HTML
// in messages is dropped.
func ToHTML(conv *Conversation) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)

	title := conv.Name
	if title == "" {
		title = "docchat conversation"
	}
	r := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage | html.SkipHTML,
	})

	return markdown.ToHTML([]byte(ToMarkdown(conv)), p, r)
}
