package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreWriteAndReadBack(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	payload := []byte{0x01, 0x02, 0x03}
	key, err := store.Write(context.Background(), "u1/job-1/output.mp4", payload)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if key != "u1/job-1/output.mp4" {
		t.Fatalf("key = %q", key)
	}

	stored, err := os.ReadFile(filepath.Join(store.BasePath(), filepath.FromSlash(key)))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(stored, payload) {
		t.Fatalf("stored bytes mismatch")
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	if _, err := store.Write(context.Background(), "../escape.mp4", []byte{1}); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
	if _, err := store.Write(context.Background(), "   ", []byte{1}); err == nil {
		t.Fatalf("expected empty key to be rejected")
	}
}

func TestFileStoreRequiresBasePath(t *testing.T) {
	if _, err := NewFileStore("  "); err == nil {
		t.Fatalf("expected error for empty base path")
	}
}
