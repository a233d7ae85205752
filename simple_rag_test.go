package pdfrag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleRAGRawMode(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)

	r, err := NewSimpleRAG(SimpleRAGConfig{
		Collections: collections,
		TopK:        2,
		Synthesize:  false,
		RetrieverOptions: []RetrieverOption{
			WithRetrieveStore(db),
			WithRetrieveEmbedder(emb),
		},
	})
	require.NoError(t, err)

	out, err := r.Query(ctx, "alpha")
	require.NoError(t, err)

	assert.Contains(t, out, "Chunk 1 (Similarity: 1.000, Pages 1, 2):")
	assert.Contains(t, out, "alpha facts from the first document")
	assert.Equal(t, 1, r.History().Len())
}

func TestSimpleRAGSynthesizedMode(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)
	gen := &stubGenerator{reply: "the synthesized answer"}

	r, err := NewSimpleRAG(SimpleRAGConfig{
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

	out, err := r.Query(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, "the synthesized answer", out)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Retrieved Context:")
	assert.Contains(t, gen.prompts[0], "Current Question: alpha")
	assert.Contains(t, gen.prompts[0], "alpha facts from the first document")
	assert.NotContains(t, gen.prompts[0], "Conversation History:")

	turns := r.History().Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "the synthesized answer", turns[0].Response)
}

func TestSimpleRAGNoCollections(t *testing.T) {
	db, _, emb := newTestCorpus(t)
	r, err := NewSimpleRAG(SimpleRAGConfig{
		Synthesize: false,
		RetrieverOptions: []RetrieverOption{
			WithRetrieveStore(db),
			WithRetrieveEmbedder(emb),
		},
	})
	require.NoError(t, err)

	_, err = r.Query(context.Background(), "alpha")
	assert.Error(t, err)
}
