package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDir_CreatesNestedPath(t *testing.T) {
	base := t.TempDir()

	err := EnsureDir(base, "a", "b", "c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, statErr := os.Stat(filepath.Join(base, "a", "b", "c"))
	if statErr != nil {
		t.Fatalf("expected directory to exist: %v", statErr)
	}
	if !info.IsDir() {
		t.Fatal("expected a directory")
	}
}

func TestEnsureDir_ExistingPathIsNoop(t *testing.T) {
	base := t.TempDir()

	if err := EnsureDir(base); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWriteOverwrite_WritesAndReplaces(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "output")

	if err := WriteOverwrite(dir, "debug.html", []byte("first")); err != nil {
		t.Fatalf("unexpected error on first write: %v", err)
	}
	if err := WriteOverwrite(dir, "debug.html", []byte("second")); err != nil {
		t.Fatalf("unexpected error on overwrite: %v", err)
	}

	content, readErr := os.ReadFile(filepath.Join(dir, "debug.html"))
	if readErr != nil {
		t.Fatalf("failed to read written file: %v", readErr)
	}
	if string(content) != "second" {
		t.Errorf("expected overwritten content %q, got %q", "second", string(content))
	}
}
