package conversation

import "github.com/starford/voxnote/internal/locale"

// Role marks who produced a history entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one line of conversation history.
type Entry struct {
	Role Role            `json:"role"`
	Text string          `json:"text"`
	Lang locale.Language `json:"language"`
}

// History keeps the most recent entries, oldest first.
type History struct {
	size    int
	entries []Entry
}

// NewHistory returns a history holding at most size entries.
func NewHistory(size int) *History {
	if size <= 0 {
		size = 10
	}
	return &History{size: size, entries: make([]Entry, 0, size)}
}

// Add appends e, dropping the oldest entry when full.
func (h *History) Add(e Entry) {
	if len(h.entries) == h.size {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:h.size-1]
	}
	h.entries = append(h.entries, e)
}

// Entries returns a copy of the held entries.
func (h *History) Entries() []Entry {
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of held entries.
func (h *History) Len() int { return len(h.entries) }
