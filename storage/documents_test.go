package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newDocumentStorage(t *testing.T) *DocumentStorage {
	t.Helper()
	ds, err := NewDocumentStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewDocumentStorage() error = %v", err)
	}
	t.Cleanup(func() { ds.Close() })
	return ds
}

func TestDocumentRecordUpserts(t *testing.T) {
	ds := newDocumentStorage(t)
	first := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	doc, err := ds.Record(Document{
		Name:        "report.pdf",
		Path:        "/home/u/report.pdf",
		Size:        100,
		ContentType: "application/pdf",
		SHA256:      Checksum([]byte("v1")),
		LastUsedAt:  first,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if doc.ID == 0 || doc.UseCount != 1 {
		t.Errorf("Record() = %+v, want a new row with use count 1", doc)
	}

	later := first.Add(time.Hour)
	again, err := ds.Record(Document{
		Name:       "report.pdf",
		Path:       "/home/u/report.pdf",
		Size:       120,
		SHA256:     Checksum([]byte("v2")),
		LastUsedAt: later,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if again.ID != doc.ID {
		t.Errorf("ID = %d, the same path must keep its row (%d)", again.ID, doc.ID)
	}
	if again.UseCount != 2 || again.Size != 120 {
		t.Errorf("Record() = %+v, want use count 2 and size 120", again)
	}
	if !again.FirstUsedAt.Equal(first) || !again.LastUsedAt.Equal(later) {
		t.Errorf("timestamps = %v / %v", again.FirstUsedAt, again.LastUsedAt)
	}
	if again.SHA256 == doc.SHA256 {
		t.Error("checksum must be refreshed")
	}
}

func TestDocumentRecordRequiresPath(t *testing.T) {
	ds := newDocumentStorage(t)
	if _, err := ds.Record(Document{Name: "x"}); err == nil {
		t.Fatal("expected an error for a document without a path")
	}
}

func TestDocumentRecentAndPrune(t *testing.T) {
	ds := newDocumentStorage(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"a.txt", "b.txt", "c.txt"} {
		_, err := ds.Record(Document{Name: name, Path: "/docs/" + name, LastUsedAt: base.Add(time.Duration(i) * time.Minute)})
		if err != nil {
			t.Fatal(err)
		}
	}
	// Touch a.txt again so it becomes the most recent
	if _, err := ds.Record(Document{Name: "a.txt", Path: "/docs/a.txt", LastUsedAt: base.Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}

	recent, err := ds.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 || recent[0].Name != "a.txt" || recent[1].Name != "c.txt" {
		t.Errorf("Recent(2) = %+v, want a.txt then c.txt", recent)
	}

	all, err := ds.Recent(0)
	if err != nil || len(all) != 3 {
		t.Fatalf("Recent(0) = %d docs, %v", len(all), err)
	}

	removed, err := ds.Prune(1)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune() removed %d, want 2", removed)
	}
	all, _ = ds.Recent(0)
	if len(all) != 1 || all[0].Name != "a.txt" {
		t.Errorf("after Prune: %+v", all)
	}
}

func TestDocumentGetAndDelete(t *testing.T) {
	ds := newDocumentStorage(t)

	doc, err := ds.Record(Document{Name: "a.txt", Path: "/docs/a.txt"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := ds.Get(doc.ID)
	if err != nil || got.Path != "/docs/a.txt" {
		t.Fatalf("Get() = %+v, %v", got, err)
	}

	if err := ds.Delete(doc.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := ds.Get(doc.ID); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrDocumentNotFound", err)
	}
	if err := ds.Delete(doc.ID); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("second Delete() error = %v, want ErrDocumentNotFound", err)
	}
}

func TestDocumentStoragePersists(t *testing.T) {
	dir := t.TempDir()

	ds, err := NewDocumentStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ds.Record(Document{Name: "a.txt", Path: "/docs/a.txt"}); err != nil {
		t.Fatal(err)
	}
	ds.Close()

	if _, err := os.Stat(filepath.Join(dir, "documents.db")); err != nil {
		t.Fatalf("documents.db not created: %v", err)
	}

	reopened, err := NewDocumentStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	docs, err := reopened.Recent(10)
	if err != nil || len(docs) != 1 {
		t.Errorf("Recent() after reopen = %v, %v", docs, err)
	}
}
