package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/starford/voxnote/internal/models"
)

// rawDocument keeps last_note_id optional so older files can be detected.
type rawDocument struct {
	LastNoteID *int          `json:"last_note_id"`
	Notes      []models.Note `json:"notes"`
}

// Encode renders doc as indented UTF-8 JSON with a trailing newline.
func Encode(doc *models.Document) ([]byte, error) {
	d := doc.Clone()
	d.Normalize()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("storage: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a stored document. A missing last_note_id is inferred as
// the maximum numeric note id.
func Decode(data []byte) (*models.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		doc := &models.Document{}
		doc.Normalize()
		return doc, nil
	}
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("storage: decode: %w", err)
	}
	doc := &models.Document{Notes: raw.Notes}
	if raw.LastNoteID != nil {
		doc.LastNoteID = *raw.LastNoteID
	} else {
		doc.LastNoteID = maxNumericID(raw.Notes)
	}
	doc.Normalize()
	return doc, nil
}

func maxNumericID(notes []models.Note) int {
	highest := 0
	for _, n := range notes {
		id, err := strconv.Atoi(n.ID)
		if err != nil {
			continue
		}
		if id > highest {
			highest = id
		}
	}
	return highest
}
