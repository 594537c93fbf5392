package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/starford/voxnote/internal/locale"
	"github.com/starford/voxnote/internal/testutil"
)

func newTestEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	opts = append([]EngineOption{
		WithEngineLogger(testutil.Logger()),
		WithMachineOptions(WithLogger(testutil.Logger())),
	}, opts...)
	return NewEngine(testutil.TestService(t), opts...)
}

func TestEngineSessionsAreIndependent(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	a, b := e.Open(), e.Open()

	e.Process(ctx, a, "create note trip", locale.English)
	_, res := e.Process(ctx, b, "yes", locale.English)
	if res.Operation != OpFind {
		t.Errorf("session b saw session a's pending create: %+v", res)
	}
	if st, _ := e.State(b); st.Phase != PhaseIdle {
		t.Errorf("session b phase = %s", st.Phase)
	}
	_, res = e.Process(ctx, a, "yes", locale.English)
	if res.Operation != OpCreate {
		t.Errorf("session a confirm = %+v", res)
	}
}

func TestEngineProcessCreatesSession(t *testing.T) {
	e := newTestEngine(t)
	id, _ := e.Process(context.Background(), "", "hello", locale.English)
	if id == "" || !e.Exists(id) {
		t.Fatalf("session %q not registered", id)
	}
	h, ok := e.History(id)
	if !ok || len(h) != 2 {
		t.Errorf("history = %+v", h)
	}
}

func TestEngineTurnFunc(t *testing.T) {
	type turn struct {
		id    string
		phase Phase
		op    string
	}
	var got []turn
	e := newTestEngine(t, WithTurnFunc(func(id string, st State, res Result) {
		got = append(got, turn{id, st.Phase, res.Operation})
	}))
	ctx := context.Background()
	id := e.Open()
	e.Process(ctx, id, "create note trip", locale.English)
	e.Process(ctx, id, "yes", locale.English)

	want := []turn{
		{id, PhaseAwaitingConfirm, OpCreateConfirm},
		{id, PhaseIdle, OpCreate},
	}
	if len(got) != len(want) {
		t.Fatalf("turns = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("turn %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestEngineReset(t *testing.T) {
	e := newTestEngine(t)
	id := e.Open()
	if !e.Reset(id) {
		t.Fatal("reset of live session returned false")
	}
	if e.Reset(id) {
		t.Error("second reset returned true")
	}
	if _, ok := e.History(id); ok {
		t.Error("history of reset session still available")
	}
}

func TestEngineSweepExpiresIdleSessions(t *testing.T) {
	e := newTestEngine(t, WithSessionTTL(time.Minute))
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	stale := e.Open()
	now = now.Add(50 * time.Second)
	fresh := e.Open()
	now = now.Add(20 * time.Second)

	if n := e.Sweep(); n != 1 {
		t.Errorf("swept %d sessions, want 1", n)
	}
	if e.Exists(stale) || !e.Exists(fresh) {
		t.Errorf("stale=%v fresh=%v", e.Exists(stale), e.Exists(fresh))
	}
}

func TestEngineConcurrentSessions(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := e.Open()
			title := string(rune('a' + i))
			e.Process(ctx, id, "create note "+title, locale.English)
			e.Process(ctx, id, "yes", locale.English)
		}()
	}
	wg.Wait()
	if e.Len() != 8 {
		t.Errorf("sessions = %d", e.Len())
	}
	if n := len(e.svc.Notes()); n != 8 {
		t.Errorf("notes = %d, want 8", n)
	}
}

func TestEngineRunStopsOnCancel(t *testing.T) {
	e := newTestEngine(t, WithSessionTTL(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}
}
