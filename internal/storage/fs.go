package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/starford/voxnote/internal/models"
)

// JSONFile implements Provider backed by a single JSON file.
type JSONFile struct {
	path string // absolute path to the document
}

var _ Provider = (*JSONFile)(nil)

// NewJSONFile returns a provider for the document at path. Parent
// directories are created on demand.
func NewJSONFile(path string) (*JSONFile, error) {
	if path == "" {
		return nil, fmt.Errorf("storage: empty document path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return nil, fmt.Errorf("storage: document path is a directory: %s", abs)
	}
	return &JSONFile{path: abs}, nil
}

// Path returns the absolute document path.
func (f *JSONFile) Path() string { return f.path }

// Load reads the document, creating an empty one when the file is absent.
func (f *JSONFile) Load(ctx context.Context) (*models.Document, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		doc := &models.Document{}
		doc.Normalize()
		if err := f.Save(ctx, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", f.path, err)
	}
	return Decode(data)
}

// Save encodes doc and writes it atomically.
func (f *JSONFile) Save(_ context.Context, doc *models.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	return writeAtomic(f.path, data)
}

// Close is a no-op for file storage.
func (f *JSONFile) Close() error { return nil }

// writeAtomic writes content: tmp file → fsync → rename.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".voxnote-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
