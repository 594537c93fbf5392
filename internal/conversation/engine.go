package conversation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/voxnote/internal/locale"
	"github.com/starford/voxnote/internal/metrics"
	"github.com/starford/voxnote/internal/noteservice"
)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSessionTTL expires sessions idle for longer than ttl. Zero keeps
// sessions until they are reset.
func WithSessionTTL(ttl time.Duration) EngineOption {
	return func(e *Engine) { e.ttl = ttl }
}

// WithMachineOptions applies opts to every machine the engine creates.
func WithMachineOptions(opts ...Option) EngineOption {
	return func(e *Engine) { e.machineOpts = append(e.machineOpts, opts...) }
}

// WithEngineLogger sets the engine logger.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// TurnFunc observes a finished turn of session id together with the state
// it left behind.
type TurnFunc func(id string, state State, res Result)

// WithTurnFunc registers a callback run after every turn.
func WithTurnFunc(fn TurnFunc) EngineOption {
	return func(e *Engine) { e.onTurn = fn }
}

type session struct {
	mu       sync.Mutex
	machine  *Machine
	lastSeen time.Time
}

// Engine keeps an independent Machine per session id. Turns of one session
// run one at a time; different sessions run concurrently.
type Engine struct {
	svc         *noteservice.Service
	machineOpts []Option
	ttl         time.Duration
	logger      *slog.Logger
	now         func() time.Time
	onTurn      TurnFunc

	mu       sync.Mutex
	sessions map[string]*session
}

// NewEngine creates an engine over svc.
func NewEngine(svc *noteservice.Service, opts ...EngineOption) *Engine {
	e := &Engine{
		svc:      svc,
		logger:   slog.Default(),
		now:      time.Now,
		sessions: make(map[string]*session),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Open starts a new session and returns its id.
func (e *Engine) Open() string {
	id := uuid.NewString()
	e.session(id)
	return id
}

// Process runs one turn in session id, creating the session when it does
// not exist. An empty id opens a new session. The id used is returned.
func (e *Engine) Process(ctx context.Context, id, text string, lang locale.Language) (string, Result) {
	if id == "" {
		id = uuid.NewString()
	}
	s := e.session(id)
	s.mu.Lock()
	res := s.machine.Process(ctx, text, lang)
	state := s.machine.State()
	e.touch(s)
	s.mu.Unlock()

	if e.onTurn != nil {
		e.onTurn(id, state, res)
	}
	return id, res
}

// Exists reports whether session id is live.
func (e *Engine) Exists(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[id]
	return ok
}

// History returns the recent turns of session id.
func (e *Engine) History(id string) ([]Entry, bool) {
	e.mu.Lock()
	s, ok := e.sessions[id]
	e.mu.Unlock()
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.History(), true
}

// State returns the dialogue state of session id.
func (e *Engine) State(id string) (State, bool) {
	e.mu.Lock()
	s, ok := e.sessions[id]
	e.mu.Unlock()
	if !ok {
		return State{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State(), true
}

// Reset ends session id. It reports whether the session existed.
func (e *Engine) Reset(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.sessions[id]; !ok {
		return false
	}
	delete(e.sessions, id)
	metrics.SetSessions(len(e.sessions))
	return true
}

// Len returns the number of live sessions.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were dropped.
func (e *Engine) Sweep() int {
	if e.ttl <= 0 {
		return 0
	}
	cutoff := e.now().Add(-e.ttl)
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for id, s := range e.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(e.sessions, id)
			n++
		}
	}
	if n > 0 {
		metrics.SetSessions(len(e.sessions))
		e.logger.Debug("expired idle sessions", slog.Int("count", n))
	}
	return n
}

// Run sweeps expired sessions until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	if e.ttl <= 0 {
		<-ctx.Done()
		return nil
	}
	interval := e.ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Sweep()
		}
	}
}

func (e *Engine) session(id string) *session {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	if !ok {
		s = &session{machine: NewMachine(e.svc, e.machineOpts...), lastSeen: e.now()}
		e.sessions[id] = s
		metrics.SetSessions(len(e.sessions))
	}
	return s
}

func (e *Engine) touch(s *session) {
	e.mu.Lock()
	s.lastSeen = e.now()
	e.mu.Unlock()
}
