package noteservice

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/voxnote/internal/locale"
)

var languages = []any{locale.English, locale.Hebrew}

// CreateParams stages a new note. OverrideConfirmed replaces an existing
// note with the same title and parent instead of asking first.
type CreateParams struct {
	Title             string          `json:"title"`
	Description       string          `json:"description,omitempty"`
	ParentID          *string         `json:"parent_id,omitempty"`
	OverrideConfirmed bool            `json:"override_confirmed,omitempty"`
	Lang              locale.Language `json:"lang,omitempty"`
}

func (p CreateParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, 500)),
		validation.Field(&p.ParentID, validation.NilOrNotEmpty),
		validation.Field(&p.Lang, validation.In(languages...)),
	)
}

// UpdateType selects how UpdateParams are applied.
type UpdateType string

const (
	ReplaceDescription UpdateType = "replace_description"
	AppendDescription  UpdateType = "append_description"
	FieldUpdate        UpdateType = "field_update"
)

// Fields is a partial note used by field updates. Nil members are left
// untouched.
type Fields struct {
	Title       *string           `json:"title,omitempty"`
	Description *string           `json:"description,omitempty"`
	Done        *bool             `json:"done,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Links       []string          `json:"links,omitempty"`
	Relations   map[string]string `json:"relations,omitempty"`
}

// UpdateParams stages a change to an existing note. TargetID is tried as
// an id, then as a title. A field update without Fields appends Text.
type UpdateParams struct {
	TargetID string          `json:"target_id"`
	Type     UpdateType      `json:"update_type"`
	Text     string          `json:"text,omitempty"`
	Fields   *Fields         `json:"fields,omitempty"`
	Lang     locale.Language `json:"lang,omitempty"`
}

func (p UpdateParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.TargetID, validation.Required),
		validation.Field(&p.Type, validation.Required,
			validation.In(ReplaceDescription, AppendDescription, FieldUpdate)),
		validation.Field(&p.Text, validation.When(p.Type != FieldUpdate || p.Fields == nil, validation.Required)),
		validation.Field(&p.Lang, validation.In(languages...)),
	)
}

// DeleteParams stages removal of a note and its descendants.
type DeleteParams struct {
	TargetID string          `json:"target_id"`
	Lang     locale.Language `json:"lang,omitempty"`
}

func (p DeleteParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.TargetID, validation.Required),
		validation.Field(&p.Lang, validation.In(languages...)),
	)
}

// FindParams is a free-text note lookup.
type FindParams struct {
	Query string          `json:"query"`
	Lang  locale.Language `json:"lang,omitempty"`
}

func (p FindParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Lang, validation.In(languages...)),
	)
}
