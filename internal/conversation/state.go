package conversation

import (
	"github.com/starford/voxnote/internal/models"
	"github.com/starford/voxnote/internal/noteservice"
	"github.com/starford/voxnote/internal/parser"
)

// Phase is the dialogue position of a conversation.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseHasContext      Phase = "has_context"
	PhaseAwaitingConfirm Phase = "awaiting_confirm"
	PhaseAwaitingContent Phase = "awaiting_content"
)

// Operation names reported in Result.Operation.
const (
	OpCreateConfirm     = "create_confirm"
	OpOverrideConfirm   = "override_confirm"
	OpSubNoteConfirm    = "add_sub_note_confirm"
	OpSubNoteNeedsTitle = "add_sub_note"
	OpCreate            = "create"
	OpCreateCancel      = "create_cancel"
	OpUpdateAskContent  = "update_ask_content"
	OpUpdateConfirm     = "update_confirm"
	OpUpdate            = "update"
	OpUpdateCancel      = "update_cancel"
	OpDeleteConfirm     = "delete_confirm"
	OpDelete            = "delete"
	OpDeleteCancel      = "delete_cancel"
	OpFind              = "find"
	OpNotFound          = "not_found"
	OpSaveFailed        = "save_failed"
	OpError             = "error"
)

// State is the transient dialogue state of one conversation. At most one of
// Create, Update and Delete is staged at a time, matching Pending.
type State struct {
	Phase   Phase          `json:"phase"`
	Pending parser.Pending `json:"pending,omitempty"`

	Create *noteservice.CreateParams `json:"create,omitempty"`
	Update *noteservice.UpdateParams `json:"update,omitempty"`
	Delete *noteservice.DeleteParams `json:"delete,omitempty"`

	// Current is the note in focus for follow-ups such as "delete".
	Current *models.Note `json:"current,omitempty"`

	// prompt and promptOp are re-issued on an ambiguous reply.
	prompt   string
	promptOp string
}

// Result is the outcome of one turn.
type Result struct {
	Response             string        `json:"response"`
	Operation            string        `json:"operation"`
	RequiresConfirmation bool          `json:"requires_confirmation"`
	Matches              []models.Note `json:"matches,omitempty"`
	FoundNotes           []models.Note `json:"found_notes,omitempty"`
	NotesUpdated         bool          `json:"notes_updated,omitempty"`
}

func (s State) title() string {
	if s.Current != nil {
		return s.Current.Title
	}
	return ""
}
