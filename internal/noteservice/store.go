package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/voxnote/internal/apperr"
	"github.com/starford/voxnote/internal/checksum"
	"github.com/starford/voxnote/internal/metrics"
	"github.com/starford/voxnote/internal/models"
	"github.com/starford/voxnote/internal/storage"
)

// EventKind names a change to the note collection.
type EventKind string

const (
	EventCreated  EventKind = "created"
	EventUpdated  EventKind = "updated"
	EventDeleted  EventKind = "deleted"
	EventReloaded EventKind = "reloaded"
)

// ChangeFunc is notified after a change has been persisted. note is a copy
// of the affected note, or nil for EventReloaded.
type ChangeFunc func(kind EventKind, note *models.Note)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithSaveAttempts sets how many times a save is tried before giving up.
func WithSaveAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// WithRetryDelay sets the base back-off between save attempts. Attempt n
// waits n times the delay.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Store) { s.delay = d }
}

// WithChangeFunc registers a callback for persisted changes.
func WithChangeFunc(fn ChangeFunc) Option {
	return func(s *Store) { s.onChange = fn }
}

// Store is the single authoritative in-memory copy of the note document.
// Every mutation goes through Mutate, which persists the whole document and
// rolls memory back when persisting fails.
type Store struct {
	mu       sync.RWMutex
	provider storage.Provider
	doc      models.Document
	sum      string

	logger   *slog.Logger
	attempts int
	delay    time.Duration
	onChange ChangeFunc
}

// Open loads the document from provider. An absent document is created
// empty.
func Open(ctx context.Context, provider storage.Provider, opts ...Option) (*Store, error) {
	s := &Store{
		provider: provider,
		logger:   slog.Default(),
		attempts: 1,
		delay:    100 * time.Millisecond,
	}
	for _, o := range opts {
		o(s)
	}
	doc, err := provider.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	doc.Normalize()
	s.doc = *doc
	s.sum = sumOf(doc)
	s.logger.Info("notes loaded", slog.Int("notes", len(doc.Notes)), slog.Int("last_note_id", doc.LastNoteID))
	return s, nil
}

// SetChangeFunc replaces the change callback.
func (s *Store) SetChangeFunc(fn ChangeFunc) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Get returns a copy of the note with the given id.
func (s *Store) Get(id string) (models.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.doc.Find(id)
	if n == nil {
		return models.Note{}, false
	}
	return n.Clone(), true
}

// Resolve looks target up as an id first, then as an exact title.
func (s *Store) Resolve(target string) (models.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := resolve(&s.doc, target)
	if n == nil {
		return models.Note{}, false
	}
	return n.Clone(), true
}

func resolve(doc *models.Document, target string) *models.Note {
	if n := doc.Find(target); n != nil {
		return n
	}
	return doc.FindByTitle(target)
}

// Save persists the current document.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

// Mutate applies fn to the document and persists the result. When fn
// returns an error nothing is saved; when saving fails the document is
// restored to its state before fn ran and an ErrPersistence error is
// returned.
func (s *Store) Mutate(ctx context.Context, fn func(doc *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.doc.Clone()
	if err := fn(&s.doc); err != nil {
		s.doc = before
		return err
	}
	s.doc.Normalize()
	if err := s.saveLocked(ctx); err != nil {
		s.doc = before
		s.logger.Error("save failed, changes rolled back", slog.Any("err", err))
		return err
	}
	return nil
}

// Reload re-reads the backing document and replaces the in-memory copy when
// it differs from what this store last wrote. It reports whether anything
// changed. A load that raced with a save is discarded: the save already
// holds the newer document, and its own change notification triggers the
// next reload.
func (s *Store) Reload(ctx context.Context) (bool, error) {
	s.mu.RLock()
	base := s.sum
	s.mu.RUnlock()

	doc, err := s.provider.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("reload notes: %w", err)
	}
	doc.Normalize()
	sum := sumOf(doc)

	s.mu.Lock()
	if s.sum != base {
		s.mu.Unlock()
		s.logger.Debug("reload skipped, notes saved during load")
		return false, nil
	}
	if sum == s.sum {
		s.mu.Unlock()
		return false, nil
	}
	s.doc = *doc
	s.sum = sum
	notify := s.onChange
	s.mu.Unlock()

	s.logger.Info("notes reloaded", slog.Int("notes", len(doc.Notes)))
	if notify != nil {
		notify(EventReloaded, nil)
	}
	return true, nil
}

// Close releases the provider.
func (s *Store) Close() error {
	return s.provider.Close()
}

func (s *Store) notify(kind EventKind, note models.Note) {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn(kind, &note)
	}
}

func (s *Store) saveLocked(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		lastErr = s.provider.Save(ctx, &s.doc)
		if lastErr == nil {
			s.sum = sumOf(&s.doc)
			metrics.Save("ok")
			return nil
		}
		if attempt == s.attempts {
			break
		}
		metrics.Save("retry")
		s.logger.Warn("save failed, retrying", slog.Int("attempt", attempt), slog.Any("err", lastErr))
		select {
		case <-ctx.Done():
			metrics.Save("failed")
			return fmt.Errorf("%w: %w", apperr.ErrPersistence, ctx.Err())
		case <-time.After(time.Duration(attempt) * s.delay):
		}
	}
	metrics.Save("failed")
	return fmt.Errorf("%w: %w", apperr.ErrPersistence, lastErr)
}

func sumOf(doc *models.Document) string {
	data, err := storage.Encode(doc)
	if err != nil {
		return ""
	}
	return checksum.Sum(data)
}
