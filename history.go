package pdfrag

import (
	"fmt"
	"strings"
)

// Turn is one conversational exchange: the queries asked and the response
// returned.
type Turn struct {
	Queries  []string
	Response string
}

// History is a fixed-capacity FIFO of conversation turns. When full, adding
// a turn evicts the oldest one.
type History struct {
	turns    []Turn
	capacity int
}

// DefaultHistoryCapacity is the number of turns kept when none is specified.
const DefaultHistoryCapacity = 5

// NewHistory creates a History holding at most capacity turns.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{capacity: capacity}
}

// Add appends a turn, evicting the oldest when at capacity.
func (h *History) Add(queries []string, response string) {
	if len(h.turns) >= h.capacity {
		h.turns = h.turns[1:]
	}
	h.turns = append(h.turns, Turn{Queries: queries, Response: response})
}

// Len returns the number of stored turns.
func (h *History) Len() int {
	return len(h.turns)
}

// Turns returns a copy of the stored turns, oldest first.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Clear drops all stored turns.
func (h *History) Clear() {
	h.turns = nil
}

// Context renders the history for inclusion in a prompt. Empty history
// renders as an empty string.
func (h *History) Context() string {
	if len(h.turns) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, turn := range h.turns {
		fmt.Fprintf(&sb, "Turn %d - Query: %s\nResponse: %s\n",
			i+1, strings.Join(turn.Queries, "; "), turn.Response)
	}
	return sb.String()
}
