// Package conversation turns utterances into note operations. A Machine
// holds the dialogue state of one conversation; an Engine keeps one Machine
// per session.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/voxnote/internal/apperr"
	"github.com/starford/voxnote/internal/locale"
	"github.com/starford/voxnote/internal/metrics"
	"github.com/starford/voxnote/internal/noteservice"
)

// Option configures a Machine.
type Option func(*Machine)

// WithSelector installs the fallback tool selector.
func WithSelector(s Selector) Option {
	return func(m *Machine) { m.selector = s }
}

// WithLogger sets the machine logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithHistorySize bounds the kept history.
func WithHistorySize(n int) Option {
	return func(m *Machine) { m.history = NewHistory(n) }
}

// WithDefaultLanguage sets the language used when a turn names none.
func WithDefaultLanguage(lang locale.Language) Option {
	return func(m *Machine) { m.defaultLang = lang }
}

type guardFunc func(ctx context.Context, t turn) (Result, bool, error)

type guard struct {
	name string
	run  guardFunc
}

type turn struct {
	text string
	lang locale.Language
}

// Machine is the dialogue state machine for one conversation. It is not
// safe for concurrent use; Engine serializes turns per session.
type Machine struct {
	svc         *noteservice.Service
	selector    Selector
	logger      *slog.Logger
	history     *History
	defaultLang locale.Language
	state       State
	guards      []guard
}

// NewMachine creates an idle machine over svc.
func NewMachine(svc *noteservice.Service, opts ...Option) *Machine {
	m := &Machine{
		svc:         svc,
		logger:      slog.Default(),
		history:     NewHistory(10),
		defaultLang: locale.English,
		state:       State{Phase: PhaseIdle},
	}
	for _, o := range opts {
		o(m)
	}
	// Evaluated in order; the first guard that handles the turn wins.
	m.guards = []guard{
		{"confirm_create", m.confirmCreate},
		{"sub_note", m.subNote},
		{"create", m.create},
		{"update", m.update},
		{"delete", m.delete},
		{"confirm_update_delete", m.confirmUpdateDelete},
		{"await_content", m.awaitContent},
		{"find", m.find},
	}
	return m
}

// State returns a copy of the dialogue state.
func (m *Machine) State() State { return m.state }

// History returns the recent turns, oldest first.
func (m *Machine) History() []Entry { return m.history.Entries() }

// Reset drops any pending operation and context.
func (m *Machine) Reset() { m.state = State{Phase: PhaseIdle} }

// Process handles one utterance. An empty lang is taken from the script of
// the text. It never fails: errors and panics inside
// the turn reset the machine to idle and produce an apology.
func (m *Machine) Process(ctx context.Context, text string, lang locale.Language) (res Result) {
	text = strings.TrimSpace(text)
	if lang == "" {
		lang = locale.ScriptOr(text, m.defaultLang)
	}
	start := time.Now()
	guardName := "none"
	m.history.Add(Entry{Role: RoleUser, Text: text, Lang: lang})

	defer func() {
		if r := recover(); r != nil {
			guardName = "panic"
			res = m.fault(lang, fmt.Errorf("panic: %v", r))
		}
		m.history.Add(Entry{Role: RoleAssistant, Text: res.Response, Lang: lang})
		metrics.ObserveTurn(guardName, res.Operation, time.Since(start))
		m.logger.Debug("turn processed",
			slog.String("guard", guardName),
			slog.String("operation", res.Operation),
			slog.String("phase", string(m.state.Phase)))
	}()

	t := turn{text: text, lang: lang}
	for _, g := range m.guards {
		out, handled, err := g.run(ctx, t)
		if err != nil {
			guardName = g.name
			if out, ok := m.expected(err, lang); ok {
				return out
			}
			return m.fault(lang, err)
		}
		if handled {
			guardName = g.name
			return out
		}
	}
	return m.fault(lang, errors.New("no guard handled the utterance"))
}

// expected renders guard errors that are part of a normal turn. The state
// is kept so the user can simply rephrase.
func (m *Machine) expected(err error, lang locale.Language) (Result, bool) {
	if errors.Is(err, apperr.ErrExtraction) {
		m.logger.Debug("title extraction failed", slog.Any("err", err))
		return Result{Response: locale.Text(lang, locale.MsgSubNoteTitleMissing), Operation: OpSubNoteNeedsTitle}, true
	}
	return Result{}, false
}

func (m *Machine) fault(lang locale.Language, err error) Result {
	m.Reset()
	metrics.Fault()
	m.logger.Error("turn failed, conversation reset", slog.Any("err", err))
	return Result{Response: locale.Text(lang, locale.MsgApology), Operation: OpError}
}

// toolResult renders a finished tool call. Not-found and save failures are
// expected outcomes: the machine goes idle and reports them. Anything else
// is a fault.
func (m *Machine) toolResult(res noteservice.Result, err error, op string) (Result, bool, error) {
	switch {
	case err == nil:
		m.Reset()
		return Result{Response: res.Response, Operation: op, NotesUpdated: true}, true, nil
	case errors.Is(err, apperr.ErrNotFound):
		m.Reset()
		return Result{Response: res.Response, Operation: OpNotFound}, true, nil
	case errors.Is(err, apperr.ErrPersistence):
		m.Reset()
		return Result{Response: res.Response, Operation: OpSaveFailed}, true, nil
	default:
		return Result{}, false, err
	}
}

// confirm moves to AWAITING_CONFIRM and returns the prompt.
func (m *Machine) confirm(prompt, op string) (Result, bool, error) {
	m.state.Phase = PhaseAwaitingConfirm
	m.state.prompt = prompt
	m.state.promptOp = op
	return Result{Response: prompt, Operation: op, RequiresConfirmation: true}, true, nil
}
