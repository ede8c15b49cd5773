package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var ErrDocumentNotFound = errors.New("document not found")

// Document is a file that was attached to a question at least once
type Document struct {
	ID          int64
	Name        string
	Path        string
	Size        int64
	ContentType string
	SHA256      string
	FirstUsedAt time.Time
	LastUsedAt  time.Time
	UseCount    int
}

// Checksum returns the hex SHA-256 of data
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DocumentStorage is the sqlite index behind the recent documents picker
type DocumentStorage struct {
	db *sql.DB
}

func NewDocumentStorage(dataDir string) (*DocumentStorage, error) {
	return OpenDocumentStorage(filepath.Join(dataDir, "documents.db"))
}

func OpenDocumentStorage(dbPath string) (*DocumentStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(1)

	ds := &DocumentStorage{db: db}
	if err := ds.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return ds, nil
}

func (ds *DocumentStorage) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		path TEXT NOT NULL UNIQUE,
		size INTEGER NOT NULL,
		content_type TEXT NOT NULL DEFAULT '',
		sha256 TEXT NOT NULL DEFAULT '',
		first_used_at INTEGER NOT NULL,
		last_used_at INTEGER NOT NULL,
		use_count INTEGER NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_documents_last_used ON documents(last_used_at);
	`

	_, err := ds.db.Exec(schema)
	return err
}

// Record inserts a document or, when its path is already known, refreshes
// its metadata and bumps the use count. It returns the stored row.
func (ds *DocumentStorage) Record(doc Document) (*Document, error) {
	if doc.Path == "" {
		return nil, fmt.Errorf("failed to record document %q: empty path", doc.Name)
	}

	usedAt := doc.LastUsedAt
	if usedAt.IsZero() {
		usedAt = time.Now()
	}

	query := `
	INSERT INTO documents (name, path, size, content_type, sha256, first_used_at, last_used_at, use_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, 1)
	ON CONFLICT(path) DO UPDATE SET
		name = excluded.name,
		size = excluded.size,
		content_type = excluded.content_type,
		sha256 = excluded.sha256,
		last_used_at = excluded.last_used_at,
		use_count = documents.use_count + 1
	`

	_, err := ds.db.Exec(query,
		doc.Name,
		doc.Path,
		doc.Size,
		doc.ContentType,
		doc.SHA256,
		usedAt.UnixNano(),
		usedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record document: %w", err)
	}

	return ds.ByPath(doc.Path)
}

const documentColumns = `id, name, path, size, content_type, sha256, first_used_at, last_used_at, use_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc         Document
		first, last int64
	)
	err := row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.Path,
		&doc.Size,
		&doc.ContentType,
		&doc.SHA256,
		&first,
		&last,
		&doc.UseCount,
	)
	if err != nil {
		return nil, err
	}
	doc.FirstUsedAt = time.Unix(0, first)
	doc.LastUsedAt = time.Unix(0, last)
	return &doc, nil
}

func (ds *DocumentStorage) Get(id int64) (*Document, error) {
	doc, err := scanDocument(ds.db.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return doc, nil
}

func (ds *DocumentStorage) ByPath(path string) (*Document, error) {
	doc, err := scanDocument(ds.db.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	return doc, nil
}

// Recent returns up to limit documents, most recently used first. A limit of
// zero or less returns all of them.
func (ds *DocumentStorage) Recent(limit int) ([]Document, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := ds.db.Query(`SELECT `+documentColumns+` FROM documents ORDER BY last_used_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			continue
		}
		docs = append(docs, *doc)
	}

	return docs, rows.Err()
}

func (ds *DocumentStorage) Delete(id int64) error {
	result, err := ds.db.Exec(`DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrDocumentNotFound, id)
	}

	return nil
}

// Prune keeps the keep most recently used documents and deletes the rest
func (ds *DocumentStorage) Prune(keep int) (int64, error) {
	result, err := ds.db.Exec(`
	DELETE FROM documents WHERE id NOT IN (
		SELECT id FROM documents ORDER BY last_used_at DESC, id DESC LIMIT ?
	)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune documents: %w", err)
	}
	return result.RowsAffected()
}

func (ds *DocumentStorage) Close() error {
	if ds.db != nil {
		return ds.db.Close()
	}
	return nil
}
