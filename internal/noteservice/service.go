// Package noteservice owns the note collection and the tools that read and
// change it: create, update, delete and find.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/starford/voxnote/internal/apperr"
	"github.com/starford/voxnote/internal/locale"
	"github.com/starford/voxnote/internal/metrics"
	"github.com/starford/voxnote/internal/models"
	"github.com/starford/voxnote/internal/parser"
)

// Operation names reported by tools.
const (
	OpCreate          = "create"
	OpOverrideConfirm = "override_confirm"
	OpUpdate          = "update"
	OpDelete          = "delete"
	OpFind            = "find"
	OpNotFound        = "not_found"
	OpSaveFailed      = "save_failed"
)

// Result is the outcome of a tool call. Response is always localized and
// ready to show.
type Result struct {
	Operation            string
	Response             string
	RequiresConfirmation bool
	// Pending is set when the call must be confirmed and repeated with
	// these parameters.
	Pending *CreateParams
	Matches []models.Note
	Note    *models.Note
	// Removed counts descendants deleted along with the target.
	Removed int
}


// Service runs the note tools against a Store.
type Service struct {
	store  *Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a service over store.
func NewService(store *Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// Store returns the underlying store.
func (s *Service) Store() *Store { return s.store }

// HasDuplicate reports whether a note with exactly title already sits under
// parentID (nil for top level).
func (s *Service) HasDuplicate(title string, parentID *string) bool {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	return findDuplicate(&s.store.doc, title, parentID) != nil
}

// TitleTaken returns the first note titled exactly title, wherever it sits.
func (s *Service) TitleTaken(title string) (models.Note, bool) {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	if n := s.store.doc.FindByTitle(title); n != nil {
		return n.Clone(), true
	}
	return models.Note{}, false
}

// Notes returns a copy of every note in document order.
func (s *Service) Notes() []models.Note {
	return s.store.Snapshot().Notes
}

// Children returns copies of the direct children of id, in children order.
func (s *Service) Children(id string) []models.Note {
	doc := s.store.Snapshot()
	parent := doc.Find(id)
	if parent == nil {
		return nil
	}
	out := make([]models.Note, 0, len(parent.Children))
	for _, cid := range parent.Children {
		if c := doc.Find(cid); c != nil {
			out = append(out, *c)
		}
	}
	return out
}

// Create adds a note. A note with the same title and parent is only
// replaced when OverrideConfirmed is set; otherwise the result asks for
// confirmation and carries the parameters to repeat.
func (s *Service) Create(ctx context.Context, p CreateParams) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", apperr.ErrInvalidParams, err)
	}
	lang := locale.ScriptOr(p.Title, p.Lang)

	var created models.Note
	err := s.store.Mutate(ctx, func(doc *models.Document) error {
		var adopted []string
		if dup := findDuplicate(doc, p.Title, p.ParentID); dup != nil {
			if !p.OverrideConfirmed {
				return apperr.ErrAlreadyExists
			}
			adopted = slices.Clone(dup.Children)
			removeNotes(doc, []string{dup.ID})
		}
		var parent *models.Note
		if p.ParentID != nil {
			if parent = doc.Find(*p.ParentID); parent == nil {
				return apperr.ErrNotFound
			}
		}

		note := models.Note{
			ID:          strconv.Itoa(doc.NextID()),
			Title:       p.Title,
			Description: p.Description,
			Children:    adopted,
		}
		if parent != nil {
			pid := parent.ID
			note.ParentID = &pid
			parent.Children = append(parent.Children, note.ID)
		}
		// The replacement keeps the replaced note's children.
		for _, cid := range adopted {
			if c := doc.Find(cid); c != nil {
				id := note.ID
				c.ParentID = &id
			}
		}
		doc.Notes = append(doc.Notes, note)
		created = note.Clone()
		return nil
	})

	switch {
	case errors.Is(err, apperr.ErrAlreadyExists):
		pending := p
		pending.OverrideConfirmed = true
		metrics.Tool("create", "confirm")
		return Result{
			Operation:            OpOverrideConfirm,
			Response:             locale.Text(lang, locale.MsgOverrideConfirm, p.Title),
			RequiresConfirmation: true,
			Pending:              &pending,
		}, nil
	case err != nil:
		return s.failure("create", lang, err)
	}

	metrics.Tool("create", "ok")
	s.logger.Info("note created", slog.String("id", created.ID), slog.String("title", created.Title))
	s.store.notify(EventCreated, created)
	return Result{
		Operation: OpCreate,
		Response:  locale.Text(lang, locale.MsgCreated, created.Title),
		Note:      &created,
	}, nil
}

// Update changes the description or fields of the note named by TargetID.
func (s *Service) Update(ctx context.Context, p UpdateParams) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", apperr.ErrInvalidParams, err)
	}
	lang := responseLanguage(p.Lang, p.TargetID, p.Text)

	var updated models.Note
	err := s.store.Mutate(ctx, func(doc *models.Document) error {
		n := resolve(doc, p.TargetID)
		if n == nil {
			return apperr.ErrNotFound
		}
		switch {
		case p.Type == ReplaceDescription:
			n.Description = p.Text
		case p.Type == FieldUpdate && p.Fields != nil:
			s.applyFields(n, p.Fields)
		default:
			n.Description = appendLine(n.Description, p.Text)
		}
		updated = n.Clone()
		return nil
	})
	if err != nil {
		return s.failure("update", lang, err)
	}

	metrics.Tool("update", "ok")
	s.logger.Info("note updated", slog.String("id", updated.ID), slog.String("type", string(p.Type)))
	s.store.notify(EventUpdated, updated)
	return Result{
		Operation: OpUpdate,
		Response:  locale.Text(lang, locale.MsgUpdated, updated.Title),
		Note:      &updated,
	}, nil
}

func (s *Service) applyFields(n *models.Note, f *Fields) {
	if f.Title != nil {
		n.Title = *f.Title
	}
	if f.Description != nil {
		n.Description = *f.Description
	}
	if f.Done != nil {
		n.Done = *f.Done
		if n.Done {
			now := s.now().UTC().Format(time.RFC3339)
			n.DoneDate = &now
		} else {
			n.DoneDate = nil
		}
	}
	n.Tags = appendUnique(n.Tags, f.Tags...)
	n.Links = appendUnique(n.Links, f.Links...)
	if len(f.Relations) > 0 && n.Relations == nil {
		n.Relations = make(map[string]string, len(f.Relations))
	}
	for k, v := range f.Relations {
		n.Relations[k] = v
	}
}

// Delete removes the note named by TargetID together with all of its
// descendants, and drops it from its parent's children.
func (s *Service) Delete(ctx context.Context, p DeleteParams) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", apperr.ErrInvalidParams, err)
	}
	lang := responseLanguage(p.Lang, p.TargetID)

	var (
		target  models.Note
		removed []models.Note
	)
	err := s.store.Mutate(ctx, func(doc *models.Document) error {
		n := resolve(doc, p.TargetID)
		if n == nil {
			return apperr.ErrNotFound
		}
		target = n.Clone()
		ids := append([]string{target.ID}, descendants(doc, target.ID)...)
		for _, id := range ids {
			removed = append(removed, doc.Find(id).Clone())
		}
		removeNotes(doc, ids)
		return nil
	})
	if err != nil {
		return s.failure("delete", lang, err)
	}

	metrics.Tool("delete", "ok")
	s.logger.Info("note deleted", slog.String("id", target.ID), slog.Int("descendants", len(removed)-1))
	for _, n := range removed {
		s.store.notify(EventDeleted, n)
	}
	res := Result{Operation: OpDelete, Note: &target, Removed: len(removed) - 1}
	if res.Removed > 0 {
		res.Response = locale.Text(lang, locale.MsgDeletedCascade, target.Title, res.Removed)
	} else {
		res.Response = locale.Text(lang, locale.MsgDeleted, target.Title)
	}
	return res, nil
}

// Find strips leading search words from the query, then returns notes whose
// title equals it or, failing that, whose title or description contains it.
// Containment ignores case unless the query is Hebrew.
func (s *Service) Find(_ context.Context, p FindParams) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", apperr.ErrInvalidParams, err)
	}
	query := parser.StripSearchPrefixes(p.Query)
	lang := locale.ScriptOr(query, p.Lang)
	matches := []models.Note{}

	if query != "" {
		doc := s.store.Snapshot()
		for _, n := range doc.Notes {
			if n.Title == query {
				matches = append(matches, n)
			}
		}
		if len(matches) == 0 {
			hebrew, _ := locale.DetectScript(query)
			for _, n := range doc.Notes {
				if containsQuery(n, query, hebrew.IsHebrew()) {
					matches = append(matches, n)
				}
			}
		}
	}

	metrics.Tool("find", matchOutcome(len(matches)))
	return Result{
		Operation: OpFind,
		Response:  locale.Text(lang, locale.MsgFoundCount, len(matches)),
		Matches:   matches,
	}, nil
}

func (s *Service) failure(tool string, lang locale.Language, err error) (Result, error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		metrics.Tool(tool, "not_found")
		return Result{Operation: OpNotFound, Response: locale.Text(lang, locale.MsgNotFound)}, err
	case errors.Is(err, apperr.ErrPersistence):
		metrics.Tool(tool, "error")
		return Result{Operation: OpSaveFailed, Response: locale.Text(lang, locale.MsgSaveFailed)}, err
	default:
		metrics.Tool(tool, "error")
		return Result{}, err
	}
}

func containsQuery(n models.Note, query string, caseSensitive bool) bool {
	if caseSensitive {
		return strings.Contains(n.Title, query) || strings.Contains(n.Description, query)
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(n.Title), q) ||
		strings.Contains(strings.ToLower(n.Description), q)
}

func findDuplicate(doc *models.Document, title string, parentID *string) *models.Note {
	for i := range doc.Notes {
		if doc.Notes[i].Title == title && doc.Notes[i].HasParent(parentID) {
			return &doc.Notes[i]
		}
	}
	return nil
}

// descendants returns the ids of every note below id, following parent
// back-references so that stale children lists cannot hide a subtree.
func descendants(doc *models.Document, id string) []string {
	var out []string
	queue := []string{id}
	seen := map[string]bool{id: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range doc.Notes {
			if n.ParentID != nil && *n.ParentID == cur && !seen[n.ID] {
				seen[n.ID] = true
				out = append(out, n.ID)
				queue = append(queue, n.ID)
			}
		}
	}
	return out
}

// removeNotes deletes ids from the document and from every children list.
func removeNotes(doc *models.Document, ids []string) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	doc.Notes = slices.DeleteFunc(doc.Notes, func(n models.Note) bool { return drop[n.ID] })
	for i := range doc.Notes {
		doc.Notes[i].Children = slices.DeleteFunc(doc.Notes[i].Children, func(id string) bool { return drop[id] })
	}
}

func matchOutcome(n int) string {
	switch n {
	case 0:
		return "none"
	case 1:
		return "one"
	default:
		return "many"
	}
}

func appendLine(existing, text string) string {
	if existing == "" {
		return text
	}
	return existing + "\n" + text
}

func appendUnique(list []string, items ...string) []string {
	for _, it := range items {
		if it != "" && !slices.Contains(list, it) {
			list = append(list, it)
		}
	}
	return list
}

// responseLanguage picks the script of the first candidate that has
// letters, or fallback.
func responseLanguage(fallback locale.Language, candidates ...string) locale.Language {
	for _, c := range candidates {
		if lang, ok := locale.DetectScript(c); ok {
			return lang
		}
	}
	return locale.ScriptOr("", fallback)
}
