package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func testSQLite(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "voxnote-test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLite_LoadEmpty(t *testing.T) {
	db := testSQLite(t)
	doc, err := db.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.LastNoteID != 0 || len(doc.Notes) != 0 {
		t.Errorf("doc = %+v, want empty", doc)
	}
}

func TestSQLite_RoundTrip(t *testing.T) {
	db := testSQLite(t)
	ctx := context.Background()
	want := sampleDocument()
	want.Normalize()
	if err := db.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := db.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}

func TestSQLite_SaveReplacesDocument(t *testing.T) {
	db := testSQLite(t)
	ctx := context.Background()
	doc := sampleDocument()
	if err := db.Save(ctx, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	doc.Notes = doc.Notes[:1]
	doc.Notes[0].Children = []string{}
	if err := db.Save(ctx, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := db.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Notes) != 1 || got.LastNoteID != doc.LastNoteID {
		t.Errorf("doc after second save = %+v", got)
	}
}
