// Package testutil provides shared test helpers for setting up note stores
// and services.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/voxnote/internal/noteservice"
	"github.com/starford/voxnote/internal/storage"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDocument creates a JSON document provider in a temporary directory.
func TestDocument(t *testing.T) (string, *storage.JSONFile) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.json")
	doc, err := storage.NewJSONFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return path, doc
}

// TestStore opens a store over a fresh temporary JSON document.
func TestStore(t *testing.T) (string, *noteservice.Store) {
	t.Helper()
	path, doc := TestDocument(t)
	store, err := noteservice.Open(context.Background(), doc, noteservice.WithLogger(Logger()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return path, store
}

// TestService returns a note service over a fresh temporary store.
func TestService(t *testing.T) *noteservice.Service {
	t.Helper()
	_, store := TestStore(t)
	return noteservice.NewService(store, Logger())
}
