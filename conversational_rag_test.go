package pdfrag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationalRAGCarriesHistoryIntoPrompt(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)
	gen := &stubGenerator{reply: "answer one"}

	r, err := NewConversationalRAG(ConversationalRAGConfig{
		Collections: collections,
		TopK:        2,
		Synthesize:  true,
		Generator:   gen,
		RetrieverOptions: []RetrieverOption{
			WithRetrieveStore(db),
			WithRetrieveEmbedder(emb),
		},
	})
	require.NoError(t, err)

	_, err = r.Query(ctx, "alpha")
	require.NoError(t, err)
	// First turn has no history yet.
	assert.NotContains(t, gen.prompts[0], "Conversation History:")

	gen.reply = "answer two"
	_, err = r.Query(ctx, "beta")
	require.NoError(t, err)

	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1], "Conversation History:")
	assert.Contains(t, gen.prompts[1], "Turn 1 - Query: alpha\nResponse: answer one")
	assert.Contains(t, gen.prompts[1], "Current Question: beta")

	assert.Equal(t, 2, r.History().Len())
}

func TestConversationalRAGRawModeRecordsHistory(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)

	r, err := NewConversationalRAG(ConversationalRAGConfig{
		Collections: collections,
		TopK:        1,
		Synthesize:  false,
		RetrieverOptions: []RetrieverOption{
			WithRetrieveStore(db),
			WithRetrieveEmbedder(emb),
		},
	})
	require.NoError(t, err)

	out, err := r.Query(ctx, "alpha")
	require.NoError(t, err)
	assert.Contains(t, out, "Chunk 1")

	turns := r.History().Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, out, turns[0].Response)
}
