package conversation

import (
	"testing"

	"github.com/starford/voxnote/internal/locale"
)

func TestHistoryDropsOldest(t *testing.T) {
	h := NewHistory(3)
	for _, s := range []string{"a", "b", "c", "d"} {
		h.Add(Entry{Role: RoleUser, Text: s, Lang: locale.English})
	}
	got := h.Entries()
	if len(got) != 3 || got[0].Text != "b" || got[2].Text != "d" {
		t.Errorf("entries = %+v", got)
	}
	got[0].Text = "changed"
	if h.Entries()[0].Text != "b" {
		t.Error("Entries exposes internal storage")
	}
}

func TestToolCallValidate(t *testing.T) {
	valid := []ToolCall{
		{Tool: ToolCreate, Title: "x"},
		{Tool: ToolUpdate, TargetID: "1", Text: "y", UpdateType: "append_description"},
		{Tool: ToolDelete, TargetID: "1"},
		{Tool: ToolFind, Query: "q"},
		{Tool: ToolUnknown},
	}
	for _, c := range valid {
		if err := c.Validate(); err != nil {
			t.Errorf("%+v: %v", c, err)
		}
	}
	invalid := []ToolCall{
		{},
		{Tool: "launch_rockets"},
		{Tool: ToolCreate},
		{Tool: ToolUpdate, TargetID: "1"},
		{Tool: ToolUpdate, TargetID: "1", Text: "y", UpdateType: "field_update"},
		{Tool: ToolDelete},
		{Tool: ToolFind},
	}
	for _, c := range invalid {
		if err := c.Validate(); err == nil {
			t.Errorf("%+v: expected error", c)
		}
	}
}
