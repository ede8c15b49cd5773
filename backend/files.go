package backend

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
)

// DefaultMaxFiles is how many files can be attached at once
const DefaultMaxFiles = 5

var ErrTooManyFiles = errors.New("too many files attached")

// File is an attached document held in memory until it is sent
type File struct {
	Name        string
	Path        string
	Size        int64
	ContentType string
	Data        []byte
}

// LoadFile reads a file from disk and sniffs its content type
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return File{
		Name:        filepath.Base(path),
		Path:        abs,
		Size:        int64(len(data)),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

// FileSet is the bounded, ordered set of files attached to the next question.
// Names are unique: adding a file with an existing name replaces it in place.
type FileSet struct {
	mu    sync.RWMutex
	max   int
	files []File
}

func NewFileSet(max int) *FileSet {
	if max <= 0 {
		max = DefaultMaxFiles
	}
	return &FileSet{max: max}
}

// Add attaches f, replacing a file with the same name
func (s *FileSet) Add(f File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.files {
		if s.files[i].Name == f.Name {
			s.files[i] = f
			return nil
		}
	}

	if len(s.files) >= s.max {
		return fmt.Errorf("%w: limit is %d", ErrTooManyFiles, s.max)
	}

	s.files = append(s.files, f)
	return nil
}

// Remove detaches the file at index i
func (s *FileSet) Remove(i int) (File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.files) {
		return File{}, false
	}
	f := s.files[i]
	s.files = append(s.files[:i], s.files[i+1:]...)
	return f, true
}

// Files returns a copy of the attached files in attach order
func (s *FileSet) Files() []File {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]File, len(s.files))
	copy(out, s.files)
	return out
}

func (s *FileSet) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.files))
	for i, f := range s.files {
		names[i] = f.Name
	}
	return names
}

func (s *FileSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

func (s *FileSet) Max() int {
	return s.max
}

func (s *FileSet) Full() bool {
	return s.Len() >= s.max
}

func (s *FileSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = nil
}

// TotalSize returns the combined size of all attached files in bytes
func (s *FileSet) TotalSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, f := range s.files {
		total += f.Size
	}
	return total
}

// FormatSize converts bytes to a human-readable size
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
