package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_ExternalWriteTriggersCallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.json")
	_ = os.WriteFile(path, []byte(`{"last_note_id":0,"notes":[]}`), 0o644)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go Watch(ctx, path, logger, func() { calls.Add(1) })

	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(path, []byte(`{"last_note_id":1,"notes":[{"id":"1","title":"x"}]}`), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return calls.Load() > 0
	}, "expected change callback after external write")
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.json")
	_ = os.WriteFile(path, []byte(`{}`), 0o644)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go Watch(ctx, path, logger, func() { calls.Add(1) })

	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644)
	time.Sleep(500 * time.Millisecond)

	if n := calls.Load(); n != 0 {
		t.Errorf("callback fired %d times for unrelated file", n)
	}
}
