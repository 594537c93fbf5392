// Package storage persists the note document.
package storage

import (
	"context"

	"github.com/starford/voxnote/internal/models"
)

// Provider loads and saves the whole note document. Save always replaces
// the full document; partial writes are never visible.
type Provider interface {
	// Load returns the stored document. An absent document yields an empty
	// one with LastNoteID 0.
	Load(ctx context.Context) (*models.Document, error)
	// Save atomically replaces the stored document.
	Save(ctx context.Context, doc *models.Document) error
	// Close releases any held resources.
	Close() error
}
