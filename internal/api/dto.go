package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/voxnote/internal/conversation"
	"github.com/starford/voxnote/internal/models"
)

// SessionResponse is returned when a session is opened.
type SessionResponse struct {
	SessionID string `json:"session_id" example:"6f1c1e0a-8d4b-4c4e-9a57-0f3b2f0e1a11" validate:"required"`
}

// TurnRequest is one utterance.
type TurnRequest struct {
	Text     string `json:"text" example:"create note shopping list" validate:"required"`
	Language string `json:"language,omitempty" example:"en"`
}

func (r TurnRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required, validation.RuneLength(1, 4000)),
		validation.Field(&r.Language, validation.RuneLength(0, 16)),
	)
}

// TurnResponse is the outcome of one utterance.
type TurnResponse struct {
	SessionID string `json:"session_id" validate:"required"`
	conversation.Result
}

// HistoryResponse lists the recent turns of a session.
type HistoryResponse struct {
	SessionID string               `json:"session_id" validate:"required"`
	Phase     conversation.Phase   `json:"phase" example:"idle"`
	History   []conversation.Entry `json:"history" validate:"required"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// NoteResponse is a note with its direct children.
type NoteResponse struct {
	models.Note
	ChildNotes []models.Note `json:"child_notes"`
}

// GraphNode is a node in the note hierarchy graph.
type GraphNode struct {
	ID    string `json:"id" example:"3" validate:"required"`
	Title string `json:"title,omitempty" example:"Groceries"`
	Done  bool   `json:"done"`
}

// GraphResponse wraps the note hierarchy graph.
type GraphResponse struct {
	Nodes []GraphNode   `json:"nodes" validate:"required"`
	Links []models.Edge `json:"links" validate:"required"`
}

// HelpResponse carries the usage guide.
type HelpResponse struct {
	Language string `json:"language" example:"en"`
	Text     string `json:"text"`
}
