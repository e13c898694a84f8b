package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWalkPDFsOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"75.pdf", "88.PDF", "notes.txt", "truth.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested", "deep.pdf"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	w := NewWalker(nil, nil)
	files, err := w.Walk(dir)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d: %+v", len(files), files)
	}
	if filepath.Base(files[0].Path) != "75.pdf" {
		t.Errorf("files[0] = %s", files[0].Path)
	}
	if filepath.Base(files[1].Path) != "88.PDF" {
		t.Errorf("files[1] = %s", files[1].Path)
	}
}

func TestWalkExcludes(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"keep.pdf", "draft.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	w := NewWalker(nil, []string{"draft*"})
	files, err := w.Walk(dir)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0].Path) != "keep.pdf" {
		t.Errorf("files = %+v", files)
	}
}

func TestWalkMissingFolder(t *testing.T) {
	w := NewWalker(nil, nil)
	if _, err := w.Walk("/nonexistent/corpus"); err == nil {
		t.Error("expected error for missing folder")
	}
}
