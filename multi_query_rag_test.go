package pdfrag

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiQueryRAGDedupsAcrossQueries(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)

	r, err := NewMultiQueryRAG(MultiQueryRAGConfig{
		Collections: collections,
		TopK:        3,
		Synthesize:  false,
		RetrieverOptions: []RetrieverOption{
			WithRetrieveStore(db),
			WithRetrieveEmbedder(emb),
		},
	})
	require.NoError(t, err)

	out, err := r.Query(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)

	assert.Contains(t, out, "Query: alpha")
	assert.Contains(t, out, "Query: beta")
	// Chunks retrieved for the first query are not repeated for the second.
	assert.Equal(t, 1, strings.Count(out, "Chunk aaa_0"))
	assert.Equal(t, 1, strings.Count(out, "Chunk aaa_1"))

	turns := r.History().Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, []string{"alpha", "beta"}, turns[0].Queries)
}

func TestMultiQueryRAGSynthesizedPrompt(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)
	gen := &stubGenerator{reply: "combined answer"}

	r, err := NewMultiQueryRAG(MultiQueryRAGConfig{
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

	out, err := r.Query(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	assert.Equal(t, "combined answer", out)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Current Questions: alpha, beta")
	assert.Contains(t, gen.prompts[0], "Query: alpha\nDocument aaa_0")
}

func TestMultiQueryRAGRequiresQueries(t *testing.T) {
	db, collections, emb := newTestCorpus(t)
	r, err := NewMultiQueryRAG(MultiQueryRAGConfig{
		Collections: collections,
		Synthesize:  false,
		RetrieverOptions: []RetrieverOption{
			WithRetrieveStore(db),
			WithRetrieveEmbedder(emb),
		},
	})
	require.NoError(t, err)

	_, err = r.Query(context.Background(), nil)
	assert.Error(t, err)
}
