package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/voxnote/internal/apperr"
	"github.com/starford/voxnote/internal/locale"
	"github.com/starford/voxnote/internal/models"
	"github.com/starford/voxnote/internal/noteservice"
	"github.com/starford/voxnote/internal/parser"
)

func (m *Machine) awaiting(p parser.Pending) bool {
	return m.state.Phase == PhaseAwaitingConfirm && m.state.Pending == p
}

// confirmCreate resolves a staged create.
func (m *Machine) confirmCreate(ctx context.Context, t turn) (Result, bool, error) {
	if !m.awaiting(parser.PendingCreate) || m.state.Create == nil {
		return Result{}, false, nil
	}
	switch parser.ClassifyConfirmation(t.text, t.lang, parser.PendingCreate).Reply {
	case parser.ReplyYes:
		res, err := m.svc.Create(ctx, *m.state.Create)
		if err == nil && res.RequiresConfirmation && res.Pending != nil {
			// the title is taken; ask again before replacing it
			m.state.Create = res.Pending
			return m.confirm(res.Response, OpOverrideConfirm)
		}
		return m.toolResult(res, err, OpCreate)
	case parser.ReplyNo:
		m.Reset()
		return Result{Response: locale.Text(t.lang, locale.MsgCancelled), Operation: OpCreateCancel}, true, nil
	default:
		return m.confirm(m.state.prompt, m.state.promptOp)
	}
}

// subNote stages a child of the current note.
func (m *Machine) subNote(_ context.Context, t turn) (Result, bool, error) {
	if m.state.Phase != PhaseHasContext || m.state.Current == nil {
		return Result{}, false, nil
	}
	if _, ok := parser.Match(parser.IntentSubNote, t.text, t.lang); !ok {
		return Result{}, false, nil
	}
	title := parser.ExtractSubNoteTitle(t.text, t.lang)
	if !title.Success {
		return Result{}, false, fmt.Errorf("sub-note %q: %w", t.text, apperr.ErrExtraction)
	}
	parentID := m.state.Current.ID
	params := noteservice.CreateParams{Title: title.Title, ParentID: &parentID, Lang: t.lang}
	if err := params.Validate(); err != nil {
		return Result{}, false, err
	}
	parent := m.state.Current.Title
	m.state = State{Phase: PhaseAwaitingConfirm, Pending: parser.PendingCreate, Create: &params, Current: m.state.Current}
	return m.confirm(locale.Text(t.lang, locale.MsgSubNoteConfirm, title.Title, parent), OpSubNoteConfirm)
}

// create stages a top-level note from a create command. A title that is
// already taken is staged as an override. While content is awaited the
// utterance is content, not a command. With a note in focus, "add to ..."
// appends to it instead.
func (m *Machine) create(_ context.Context, t turn) (Result, bool, error) {
	if m.state.Phase == PhaseAwaitingContent {
		return Result{}, false, nil
	}
	if m.state.Phase == PhaseHasContext && m.state.Current != nil {
		if _, ok := parser.Match(parser.IntentAppend, t.text, t.lang); ok {
			return Result{}, false, nil
		}
	}
	title, ok := parser.StripCreate(t.text, t.lang)
	if !ok {
		return Result{}, false, nil
	}
	if title == "" {
		title = locale.Text(t.lang, locale.MsgUntitled)
	}
	return m.stageCreate(noteservice.CreateParams{Title: title, Lang: t.lang}, t.lang)
}

func (m *Machine) stageCreate(params noteservice.CreateParams, lang locale.Language) (Result, bool, error) {
	prompt, op := locale.Text(lang, locale.MsgCreateConfirm, params.Title), OpCreateConfirm
	if m.svc.HasDuplicate(params.Title, params.ParentID) {
		params.OverrideConfirmed = true
		prompt, op = locale.Text(lang, locale.MsgOverrideConfirm, params.Title), OpOverrideConfirm
	} else if params.ParentID == nil {
		// the same title under another note is mentioned but not replaced
		if other, ok := m.svc.TitleTaken(params.Title); ok && other.ParentID != nil {
			if parent, ok := m.svc.Store().Get(*other.ParentID); ok {
				prompt = locale.Text(lang, locale.MsgCreateElsewhere, params.Title, parent.Title)
			}
		}
	}
	if err := params.Validate(); err != nil {
		return Result{}, false, err
	}
	m.state = State{Phase: PhaseAwaitingConfirm, Pending: parser.PendingCreate, Create: &params}
	return m.confirm(prompt, op)
}

// update asks for new content for the current note, or stages it at once
// when the utterance carries it after a colon.
func (m *Machine) update(_ context.Context, t turn) (Result, bool, error) {
	if m.state.Phase != PhaseHasContext || m.state.Current == nil {
		return Result{}, false, nil
	}
	kind := noteservice.ReplaceDescription
	if _, ok := parser.Match(parser.IntentAppend, t.text, t.lang); ok {
		kind = noteservice.AppendDescription
	} else if _, ok := parser.Match(parser.IntentUpdate, t.text, t.lang); !ok {
		return Result{}, false, nil
	}
	params := noteservice.UpdateParams{TargetID: m.state.Current.ID, Type: kind, Lang: t.lang}

	if _, content, ok := strings.Cut(t.text, ":"); ok && strings.TrimSpace(content) != "" {
		return m.stageUpdate(params, strings.TrimSpace(content), t.lang)
	}
	m.state = State{Phase: PhaseAwaitingContent, Update: &params, Current: m.state.Current}
	return Result{Response: locale.Text(t.lang, locale.MsgUpdateAskContent), Operation: OpUpdateAskContent}, true, nil
}

func (m *Machine) stageUpdate(params noteservice.UpdateParams, content string, lang locale.Language) (Result, bool, error) {
	params.Text = content
	if err := params.Validate(); err != nil {
		return Result{}, false, err
	}
	current := m.state.Current
	m.state = State{Phase: PhaseAwaitingConfirm, Pending: parser.PendingUpdate, Update: &params, Current: current}
	return m.confirm(locale.Text(lang, locale.MsgUpdateConfirm, m.state.title(), content), OpUpdateConfirm)
}

// delete stages removal of the current note.
func (m *Machine) delete(_ context.Context, t turn) (Result, bool, error) {
	if m.state.Phase != PhaseHasContext || m.state.Current == nil {
		return Result{}, false, nil
	}
	if _, ok := parser.Match(parser.IntentDelete, t.text, t.lang); !ok {
		return Result{}, false, nil
	}
	return m.stageDelete(*m.state.Current, t.lang)
}

func (m *Machine) stageDelete(target models.Note, lang locale.Language) (Result, bool, error) {
	params := noteservice.DeleteParams{TargetID: target.ID, Lang: lang}
	if err := params.Validate(); err != nil {
		return Result{}, false, err
	}
	m.state = State{Phase: PhaseAwaitingConfirm, Pending: parser.PendingDelete, Delete: &params, Current: &target}
	return m.confirm(locale.Text(lang, locale.MsgDeleteConfirm, target.Title), OpDeleteConfirm)
}

// confirmUpdateDelete resolves a staged update or delete.
func (m *Machine) confirmUpdateDelete(ctx context.Context, t turn) (Result, bool, error) {
	isUpdate := m.awaiting(parser.PendingUpdate) && m.state.Update != nil
	isDelete := m.awaiting(parser.PendingDelete) && m.state.Delete != nil
	if !isUpdate && !isDelete {
		return Result{}, false, nil
	}

	switch parser.ClassifyConfirmation(t.text, t.lang, m.state.Pending).Reply {
	case parser.ReplyYes:
		if isUpdate {
			res, err := m.svc.Update(ctx, *m.state.Update)
			return m.toolResult(res, err, OpUpdate)
		}
		res, err := m.svc.Delete(ctx, *m.state.Delete)
		return m.toolResult(res, err, OpDelete)
	case parser.ReplyNo:
		op := OpDeleteCancel
		if isUpdate {
			op = OpUpdateCancel
		}
		m.Reset()
		return Result{Response: locale.Text(t.lang, locale.MsgCancelled), Operation: op}, true, nil
	default:
		if isUpdate {
			prompt := locale.Text(t.lang, locale.MsgUpdateConfirmAgain, m.state.title(), m.state.Update.Text)
			return m.confirm(prompt, OpUpdateConfirm)
		}
		return m.confirm(locale.Text(t.lang, locale.MsgDeleteConfirmAgain, m.state.title()), OpDeleteConfirm)
	}
}

// awaitContent takes the utterance as the new description. A bare yes or
// no is not content and is answered with a re-prompt.
func (m *Machine) awaitContent(_ context.Context, t turn) (Result, bool, error) {
	if m.state.Phase != PhaseAwaitingContent || m.state.Update == nil {
		return Result{}, false, nil
	}
	if parser.IsBareConfirmation(t.text, t.lang, parser.PendingUpdate) || t.text == "" {
		return Result{Response: locale.Text(t.lang, locale.MsgUpdateContentAgain), Operation: OpUpdateAskContent}, true, nil
	}
	return m.stageUpdate(*m.state.Update, t.text, t.lang)
}

// find looks the utterance up. A single match becomes the current note.
func (m *Machine) find(ctx context.Context, t turn) (Result, bool, error) {
	res, err := m.svc.Find(ctx, noteservice.FindParams{Query: t.text, Lang: t.lang})
	if err != nil {
		return Result{}, false, err
	}
	if len(res.Matches) == 0 && m.selector != nil {
		if out, ok, err := m.fallback(ctx, t); err != nil || ok {
			return out, ok, err
		}
	}
	return m.found(res, t.lang), true, nil
}

func (m *Machine) found(res noteservice.Result, lang locale.Language) Result {
	if len(res.Matches) != 1 {
		m.Reset()
		return Result{Response: res.Response, Operation: OpFind, Matches: res.Matches}
	}
	note := res.Matches[0]
	m.state = State{Phase: PhaseHasContext, Current: &note}
	return Result{
		Response:             locale.Text(lang, locale.MsgFoundOne),
		Operation:            OpFind,
		RequiresConfirmation: true,
		Matches:              res.Matches,
		FoundNotes:           append([]models.Note{note}, m.svc.Children(note.ID)...),
	}
}
