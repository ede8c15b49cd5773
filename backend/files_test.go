package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSetLimit(t *testing.T) {
	s := NewFileSet(DefaultMaxFiles)

	for _, name := range []string{"1.txt", "2.txt", "3.txt", "4.txt", "5.txt"} {
		require.NoError(t, s.Add(File{Name: name, Size: 1}))
	}
	assert.True(t, s.Full())

	err := s.Add(File{Name: "6.txt"})
	assert.ErrorIs(t, err, ErrTooManyFiles)
	assert.Equal(t, 5, s.Len())
}

func TestFileSetReplacesDuplicateName(t *testing.T) {
	s := NewFileSet(2)
	require.NoError(t, s.Add(File{Name: "a.txt", Size: 1}))
	require.NoError(t, s.Add(File{Name: "b.txt", Size: 2}))

	// Replacing works even when the set is full
	require.NoError(t, s.Add(File{Name: "a.txt", Size: 10}))

	assert.Equal(t, []string{"a.txt", "b.txt"}, s.Names())
	assert.Equal(t, int64(12), s.TotalSize())
}

func TestFileSetRemoveAndClear(t *testing.T) {
	s := NewFileSet(0)
	assert.Equal(t, DefaultMaxFiles, s.Max())

	require.NoError(t, s.Add(File{Name: "a"}))
	require.NoError(t, s.Add(File{Name: "b"}))
	require.NoError(t, s.Add(File{Name: "c"}))

	f, ok := s.Remove(1)
	require.True(t, ok)
	assert.Equal(t, "b", f.Name)
	assert.Equal(t, []string{"a", "c"}, s.Names())

	_, ok = s.Remove(5)
	assert.False(t, ok)

	files := s.Files()
	files[0].Name = "mutated"
	assert.Equal(t, "a", s.Files()[0].Name, "Files must return a copy")

	s.Clear()
	assert.Zero(t, s.Len())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0600))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", f.Name)
	assert.Equal(t, int64(11), f.Size)
	assert.Equal(t, "text/plain; charset=utf-8", f.ContentType)
	assert.Equal(t, "hello world", string(f.Data))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatSize(tt.bytes))
	}
}
