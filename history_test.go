package pdfrag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryEvictsOldestAtCapacity(t *testing.T) {
	h := NewHistory(2)
	h.Add([]string{"q1"}, "r1")
	h.Add([]string{"q2"}, "r2")
	h.Add([]string{"q3"}, "r3")

	assert.Equal(t, 2, h.Len())
	turns := h.Turns()
	assert.Equal(t, []string{"q2"}, turns[0].Queries)
	assert.Equal(t, []string{"q3"}, turns[1].Queries)
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < 10; i++ {
		h.Add([]string{"q"}, "r")
	}
	assert.Equal(t, DefaultHistoryCapacity, h.Len())
}

func TestHistoryContextFormat(t *testing.T) {
	h := NewHistory(5)
	assert.Empty(t, h.Context())

	h.Add([]string{"what is x"}, "x is y")
	h.Add([]string{"q1", "q2"}, "combined")

	ctx := h.Context()
	assert.Contains(t, ctx, "Turn 1 - Query: what is x\nResponse: x is y\n")
	assert.Contains(t, ctx, "Turn 2 - Query: q1; q2\nResponse: combined\n")
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(3)
	h.Add([]string{"q"}, "r")
	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Context())
}
