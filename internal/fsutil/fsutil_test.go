package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCreateDirectoryIfNotExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "path")

	if err := CreateDirectoryIfNotExists(dir); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory at %s: %v", dir, err)
	}

	// Second call on an existing directory is a no-op.
	if err := CreateDirectoryIfNotExists(dir); err != nil {
		t.Errorf("expected no error for existing directory, got %v", err)
	}
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.bin")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// SHA-256 of "hello".
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}
	if got != want {
		t.Errorf("HashFile = %s, want %s", got, want)
	}

	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sized.bin")
	if err := os.WriteFile(path, make([]byte, 1234), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	size, err := FileSize(path)
	if err != nil {
		t.Fatalf("FileSize failed: %v", err)
	}
	if size != 1234 {
		t.Errorf("FileSize = %d, want 1234", size)
	}
}
