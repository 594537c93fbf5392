package conversation

import (
	"context"
	"log/slog"

	"github.com/starford/voxnote/internal/metrics"
	"github.com/starford/voxnote/internal/noteservice"
)

// fallback asks the selector what to do with an utterance nothing else
// understood. Its choice is staged like a rule-based one, so nothing
// changes before the user confirms. ok is false when the selector has no
// usable answer and the plain find result should stand.
func (m *Machine) fallback(ctx context.Context, t turn) (Result, bool, error) {
	call, err := m.selector.Select(ctx, t.text, m.history.Entries())
	if err != nil {
		metrics.Fallback("error")
		m.logger.Warn("tool selector failed", slog.Any("err", err))
		return Result{}, false, nil
	}
	if err := call.Validate(); err != nil || call.Tool == ToolUnknown {
		metrics.Fallback("unknown")
		m.logger.Debug("tool selector gave no usable call", slog.String("tool", call.Tool), slog.Any("err", err))
		return Result{}, false, nil
	}
	metrics.Fallback("selected")
	m.logger.Debug("tool selector chose", slog.String("tool", call.Tool))

	switch call.Tool {
	case ToolCreate:
		params := noteservice.CreateParams{Title: call.Title, Description: call.Description, Lang: t.lang}
		if call.ParentID != "" {
			parent, ok := m.svc.Store().Resolve(call.ParentID)
			if !ok {
				return Result{}, false, nil
			}
			params.ParentID = &parent.ID
		}
		return m.stageCreate(params, t.lang)
	case ToolUpdate:
		target, ok := m.svc.Store().Resolve(call.TargetID)
		if !ok {
			return Result{}, false, nil
		}
		kind := noteservice.ReplaceDescription
		if call.UpdateType == string(noteservice.AppendDescription) {
			kind = noteservice.AppendDescription
		}
		m.state = State{Current: &target}
		return m.stageUpdate(noteservice.UpdateParams{TargetID: target.ID, Type: kind, Lang: t.lang}, call.Text, t.lang)
	case ToolDelete:
		target, ok := m.svc.Store().Resolve(call.TargetID)
		if !ok {
			return Result{}, false, nil
		}
		return m.stageDelete(target, t.lang)
	case ToolFind:
		res, err := m.svc.Find(ctx, noteservice.FindParams{Query: call.Query, Lang: t.lang})
		if err != nil {
			return Result{}, false, err
		}
		return m.found(res, t.lang), true, nil
	}
	return Result{}, false, nil
}
