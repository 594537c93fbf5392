package conversation

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Tool names a Selector may choose.
const (
	ToolCreate  = "create_note"
	ToolUpdate  = "update_note"
	ToolDelete  = "delete_note"
	ToolFind    = "find_note"
	ToolUnknown = "unknown"
)

// ToolCall is a Selector's choice of tool and parameters. It is only ever
// staged; the user still confirms before anything changes.
type ToolCall struct {
	Tool        string `json:"tool"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
	TargetID    string `json:"target_id,omitempty"`
	Text        string `json:"text,omitempty"`
	UpdateType  string `json:"update_type,omitempty"`
	Query       string `json:"query,omitempty"`
	Response    string `json:"response,omitempty"`
}

func (c ToolCall) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Tool, validation.Required,
			validation.In(ToolCreate, ToolUpdate, ToolDelete, ToolFind, ToolUnknown)),
		validation.Field(&c.Title, validation.When(c.Tool == ToolCreate, validation.Required)),
		validation.Field(&c.TargetID, validation.When(c.Tool == ToolUpdate || c.Tool == ToolDelete, validation.Required)),
		validation.Field(&c.Text, validation.When(c.Tool == ToolUpdate, validation.Required)),
		validation.Field(&c.UpdateType, validation.In("replace_description", "append_description")),
		validation.Field(&c.Query, validation.When(c.Tool == ToolFind, validation.Required)),
	)
}

// Selector picks a tool for an utterance the rule-based guards could not
// place. It sees the recent history for context.
type Selector interface {
	Select(ctx context.Context, utterance string, history []Entry) (ToolCall, error)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(ctx context.Context, utterance string, history []Entry) (ToolCall, error)

func (f SelectorFunc) Select(ctx context.Context, utterance string, history []Entry) (ToolCall, error) {
	return f(ctx, utterance, history)
}
