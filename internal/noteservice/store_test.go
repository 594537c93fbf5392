package noteservice

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/starford/voxnote/internal/models"
	"github.com/starford/voxnote/internal/storage"
)

func TestReloadIgnoresOwnWrites(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, CreateParams{Title: "mine"})

	changed, err := svc.Store().Reload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("reload after own save reported a change")
	}
}

func TestReloadPicksUpExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.json")
	file, err := storage.NewJSONFile(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	store, err := Open(ctx, file, WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	var events []EventKind
	store.SetChangeFunc(func(kind EventKind, _ *models.Note) { events = append(events, kind) })

	external := &models.Document{LastNoteID: 5, Notes: []models.Note{{ID: "5", Title: "from elsewhere"}}}
	if err := file.Save(ctx, external); err != nil {
		t.Fatal(err)
	}
	changed, err := store.Reload(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("external edit not detected")
	}
	if n, ok := store.Resolve("from elsewhere"); !ok || n.ID != "5" {
		t.Errorf("resolve after reload = %+v, %v", n, ok)
	}
	if len(events) != 1 || events[0] != EventReloaded {
		t.Errorf("events = %v", events)
	}

	// the id counter continues from the reloaded document
	svc := NewService(store, quietLogger())
	if n := mustCreate(t, svc, CreateParams{Title: "next"}); n.ID != "6" {
		t.Errorf("id = %q", n.ID)
	}
}

// gatedProvider holds Load after reading until release is closed.
type gatedProvider struct {
	storage.Provider
	loaded  chan struct{}
	release chan struct{}
}

func (p *gatedProvider) Load(ctx context.Context) (*models.Document, error) {
	doc, err := p.Provider.Load(ctx)
	if p.loaded != nil {
		close(p.loaded)
		<-p.release
	}
	return doc, err
}

func TestReloadKeepsSaveCommittedDuringLoad(t *testing.T) {
	file, err := storage.NewJSONFile(filepath.Join(t.TempDir(), "notes.json"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	gate := &gatedProvider{Provider: file}
	store, err := Open(ctx, gate, WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	svc := NewService(store, quietLogger())
	mustCreate(t, svc, CreateParams{Title: "a"})

	gate.loaded = make(chan struct{})
	gate.release = make(chan struct{})
	type reloadResult struct {
		changed bool
		err     error
	}
	done := make(chan reloadResult, 1)
	go func() {
		changed, err := store.Reload(ctx)
		done <- reloadResult{changed, err}
	}()

	<-gate.loaded
	mustCreate(t, svc, CreateParams{Title: "b"})
	close(gate.release)

	res := <-done
	if res.err != nil {
		t.Fatal(res.err)
	}
	if res.changed {
		t.Error("stale load replaced the document")
	}
	var got []string
	for _, n := range svc.Notes() {
		got = append(got, n.Title)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("titles = %v, want %v", got, want)
	}

	// the file on disk carries both notes as well
	onDisk, err := file.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(onDisk.Notes) != 2 {
		t.Errorf("notes on disk = %d, want 2", len(onDisk.Notes))
	}
}
