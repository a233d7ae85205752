package pdfrag

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		compound bool
		subs     []string
	}{
		{
			name:     "simple question",
			query:    "what is alpha",
			compound: false,
			subs:     []string{"what is alpha"},
		},
		{
			name:     "single sentence with period",
			query:    "what is alpha.",
			compound: false,
			subs:     []string{"what is alpha."},
		},
		{
			// "and" flags the query as compound even though the splitter
			// only breaks at sentence boundaries.
			name:     "conjunction without punctuation",
			query:    "explain alpha and describe beta",
			compound: true,
			subs:     []string{"explain alpha and describe beta"},
		},
		{
			name:     "two sentences",
			query:    "explain alpha. describe beta.",
			compound: true,
			subs:     []string{"explain alpha", "describe beta"},
		},
		{
			name:     "sentence joined with and",
			query:    "explain alpha; and describe beta",
			compound: true,
			subs:     []string{"explain alpha", "describe beta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compound, subs := AnalyzeQuery(tt.query)
			assert.Equal(t, tt.compound, compound)
			assert.Equal(t, tt.subs, subs)
		})
	}
}

func TestAgenticRAGSimpleQuery(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)

	r, err := NewAgenticRAG(AgenticRAGConfig{
		Collections: collections,
		TopK:        2,
		Synthesize:  false,
		RetrieverOptions: []RetrieverOption{
			WithRetrieveStore(db),
			WithRetrieveEmbedder(emb),
		},
	})
	require.NoError(t, err)

	result, err := r.Query(ctx, "alpha")
	require.NoError(t, err)

	require.NotNil(t, result.Response)
	assert.Equal(t, "alpha", result.Response.Question)
	assert.Equal(t, "doc1.pdf", result.Response.Answer.Source)

	require.GreaterOrEqual(t, len(result.Reasoning), 2)
	assert.Equal(t, "Agent Reasoning: Initial query analysis completed.", result.Reasoning[0])
	assert.Contains(t, result.Reasoning[1], "Retrieved 2 chunks for query: alpha")
}

func TestAgenticRAGCompoundQueryMergesSubQueries(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)
	emb.vectors["explain alpha"] = []float32{1, 0}
	emb.vectors["describe beta"] = []float32{0, 1}

	r, err := NewAgenticRAG(AgenticRAGConfig{
		Collections: collections,
		TopK:        3,
		Synthesize:  false,
		RetrieverOptions: []RetrieverOption{
			WithRetrieveStore(db),
			WithRetrieveEmbedder(emb),
		},
	})
	require.NoError(t, err)

	result, err := r.Query(ctx, "explain alpha; and describe beta")
	require.NoError(t, err)

	require.NotNil(t, result.Response)
	assert.Contains(t, result.Reasoning[1], "Query split into 2 sub-queries")
	// Both sub-queries contribute, overlapping chunks appear once.
	details := result.Response.Answer.Details
	assert.Contains(t, details, "alpha facts")
	assert.Contains(t, details, "beta facts")
	assert.Equal(t, 1, strings.Count(details, "alpha notes"))
}

func TestAgenticRAGLLMMode(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)
	gen := &stubGenerator{reply: `{"question": "alpha", "answer": {"summary": "s", "details": "d", "pages": [1], "source": "doc1.pdf"}}`}

	r, err := NewAgenticRAG(AgenticRAGConfig{
		Collections: collections,
		Synthesize:  true,
		Generator:   gen,
		RetrieverOptions: []RetrieverOption{
			WithRetrieveStore(db),
			WithRetrieveEmbedder(emb),
		},
	})
	require.NoError(t, err)

	result, err := r.Query(ctx, "alpha")
	require.NoError(t, err)
	require.NotNil(t, result.Response)
	assert.Equal(t, "s", result.Response.Answer.Summary)
	assert.Equal(t, 1, r.History().Len())
}
