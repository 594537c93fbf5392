// Package models defines the domain types for voxnote.
package models

import (
	"slices"
)

// Note is a single record in the note hierarchy. DoneDate is kept as
// written; notes marked done here carry an RFC 3339 timestamp.
type Note struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	ParentID    *string           `json:"parent_id"`
	Children    []string          `json:"children"`
	Done        bool              `json:"done"`
	DoneDate    *string           `json:"done_date"`
	Relations   map[string]string `json:"relations"`
	Links       []string          `json:"links"`
	Tags        []string          `json:"tags"`
}

// Document is the persisted form of the note collection.
type Document struct {
	LastNoteID int    `json:"last_note_id"`
	Notes      []Note `json:"notes"`
}

// HasParent reports whether the note sits under parentID (nil means top level).
func (n *Note) HasParent(parentID *string) bool {
	if n.ParentID == nil || parentID == nil {
		return n.ParentID == nil && parentID == nil
	}
	return *n.ParentID == *parentID
}

// Clone returns a deep copy of the note.
func (n Note) Clone() Note {
	out := n
	if n.ParentID != nil {
		p := *n.ParentID
		out.ParentID = &p
	}
	if n.DoneDate != nil {
		d := *n.DoneDate
		out.DoneDate = &d
	}
	out.Children = slices.Clone(n.Children)
	out.Links = slices.Clone(n.Links)
	out.Tags = slices.Clone(n.Tags)
	if n.Relations != nil {
		out.Relations = make(map[string]string, len(n.Relations))
		for k, v := range n.Relations {
			out.Relations[k] = v
		}
	}
	return out
}

// normalize replaces nil collections with empty ones so that encoded
// documents always carry [] and {} rather than null.
func (n *Note) normalize() {
	if n.Children == nil {
		n.Children = []string{}
	}
	if n.Relations == nil {
		n.Relations = map[string]string{}
	}
	if n.Links == nil {
		n.Links = []string{}
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() Document {
	out := Document{LastNoteID: d.LastNoteID, Notes: make([]Note, len(d.Notes))}
	for i, n := range d.Notes {
		out.Notes[i] = n.Clone()
	}
	return out
}

// Normalize fills nil collections on the document and every note.
func (d *Document) Normalize() {
	if d.Notes == nil {
		d.Notes = []Note{}
	}
	for i := range d.Notes {
		d.Notes[i].normalize()
	}
}

// NextID advances the id counter and returns the new id. Ids are never reused.
func (d *Document) NextID() int {
	d.LastNoteID++
	return d.LastNoteID
}

// IndexOf returns the position of the note with the given id, or -1.
func (d *Document) IndexOf(id string) int {
	for i := range d.Notes {
		if d.Notes[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns a pointer into Notes for the given id, or nil.
func (d *Document) Find(id string) *Note {
	if i := d.IndexOf(id); i >= 0 {
		return &d.Notes[i]
	}
	return nil
}

// FindByTitle returns the first note with exactly the given title, or nil.
func (d *Document) FindByTitle(title string) *Note {
	for i := range d.Notes {
		if d.Notes[i].Title == title {
			return &d.Notes[i]
		}
	}
	return nil
}

// Edge is a parent → child link used for graph rendering.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Edges returns one edge per note that has a parent.
func (d *Document) Edges() []Edge {
	out := []Edge{}
	for _, n := range d.Notes {
		if n.ParentID != nil && *n.ParentID != "" {
			out = append(out, Edge{Source: *n.ParentID, Target: n.ID})
		}
	}
	return out
}
