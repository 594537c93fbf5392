package storage

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/starford/voxnote/internal/models"
)

func tempDocument(t *testing.T) *JSONFile {
	t.Helper()
	f, err := NewJSONFile(filepath.Join(t.TempDir(), "data", "notes.json"))
	if err != nil {
		t.Fatalf("NewJSONFile: %v", err)
	}
	return f
}

func sampleDocument() *models.Document {
	parent := "1"
	done := "2025-03-01T10:00:00Z"
	return &models.Document{
		LastNoteID: 3,
		Notes: []models.Note{
			{ID: "1", Title: "shopping list", Children: []string{"3"}},
			{ID: "3", Title: "חלב", Description: "שני ליטר", ParentID: &parent,
				Done: true, DoneDate: &done, Tags: []string{"urgent"},
				Relations: map[string]string{"see_also": "1"}, Links: []string{"https://example.com"}},
		},
	}
}

func TestLoadAbsentCreatesEmptyDocument(t *testing.T) {
	f := tempDocument(t)
	doc, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.LastNoteID != 0 || len(doc.Notes) != 0 {
		t.Errorf("doc = %+v, want empty", doc)
	}
	data, err := os.ReadFile(f.Path())
	if err != nil {
		t.Fatalf("document not created: %v", err)
	}
	if !strings.Contains(string(data), `"last_note_id": 0`) {
		t.Errorf("unexpected content: %s", data)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	f := tempDocument(t)
	ctx := context.Background()
	want := sampleDocument()
	want.Normalize()

	if err := f.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := f.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestEncodeKeepsHebrewReadable(t *testing.T) {
	data, err := Encode(sampleDocument())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), "חלב") {
		t.Errorf("hebrew title escaped: %s", data)
	}
	if !strings.Contains(string(data), `"parent_id": null`) {
		t.Errorf("top-level note should encode parent_id as null: %s", data)
	}
}

func TestDecodeInfersMissingLastID(t *testing.T) {
	doc, err := Decode([]byte(`{"notes":[{"id":"4","title":"a"},{"id":"x","title":"b"},{"id":"12","title":"c"}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.LastNoteID != 12 {
		t.Errorf("LastNoteID = %d, want 12", doc.LastNoteID)
	}
	if doc.Notes[0].Children == nil || doc.Notes[0].Tags == nil {
		t.Error("decode should normalize nil collections")
	}
}

func TestDecodeKeepsExplicitLastID(t *testing.T) {
	doc, err := Decode([]byte(`{"last_note_id": 40, "notes":[{"id":"4","title":"a"}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.LastNoteID != 40 {
		t.Errorf("LastNoteID = %d, want 40", doc.LastNoteID)
	}
}

func TestDecodeKeepsFreeFormDoneDate(t *testing.T) {
	doc, err := Decode([]byte(`{"last_note_id": 1, "notes":[{"id":"1","title":"a","done":true,"done_date":"2024-05-01 10:00"}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if d := doc.Notes[0].DoneDate; d == nil || *d != "2024-05-01 10:00" {
		t.Errorf("done_date = %v", d)
	}
	data, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), `"done_date": "2024-05-01 10:00"`) {
		t.Errorf("done_date not preserved: %s", data)
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	if _, err := Decode([]byte(`{"notes": [`)); err == nil {
		t.Error("expected error for truncated document")
	}
}

func TestAtomicSaveLeavesNoTempFiles(t *testing.T) {
	f := tempDocument(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		doc := sampleDocument()
		doc.LastNoteID += i
		if err := f.Save(ctx, doc); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(f.Path()), ".voxnote-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewJSONFile_DirectoryRejected(t *testing.T) {
	if _, err := NewJSONFile(t.TempDir()); err == nil {
		t.Error("expected error when path is a directory")
	}
}
