package pdfrag

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredOutputRAGDirectMode(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)

	r, err := NewStructuredOutputRAG(StructuredOutputRAGConfig{
		Collections:   collections,
		TopK:          2,
		Synthesize:    false,
		SummaryLength: 10,
		RetrieverOptions: []RetrieverOption{
			WithRetrieveStore(db),
			WithRetrieveEmbedder(emb),
		},
	})
	require.NoError(t, err)

	resp, err := r.Query(ctx, "alpha")
	require.NoError(t, err)

	assert.Equal(t, "alpha", resp.Question)
	// Best chunk is aaa_0, truncated at SummaryLength.
	assert.Equal(t, "alpha fact...", resp.Answer.Summary)
	assert.Equal(t, "doc1.pdf", resp.Answer.Source)
	// Union of pages across both retrieved chunks, sorted.
	assert.Equal(t, []int{1, 2}, resp.Answer.Pages)
	assert.Contains(t, resp.Answer.Details, "PDF: doc1.pdf")
	assert.Contains(t, resp.Answer.Details, "PDF: doc2.pdf")
	assert.Equal(t, 1, r.History().Len())
}

func TestStructureDirectTruncatesAtRuneBoundary(t *testing.T) {
	r := &StructuredOutputRAG{summaryLen: 3}

	resp := r.structureDirect("q", []ScoredChunk{
		{Content: "naïveté explained", Similarity: 1, Filename: "doc.pdf"},
	})

	// Byte 3 falls inside the two-byte ï, so the cut backs up instead of
	// splitting the rune.
	assert.Equal(t, "na...", resp.Answer.Summary)
	assert.True(t, utf8.ValidString(resp.Answer.Summary))
}

func TestStructuredOutputRAGLLMModeExtractsJSON(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)
	gen := &stubGenerator{reply: "Here is the result:\n" +
		`{"question": "alpha", "answer": {"summary": "short", "details": "long", "pages": [1, 2], "source": "doc1.pdf"}}` +
		"\nHope that helps."}

	r, err := NewStructuredOutputRAG(StructuredOutputRAGConfig{
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

	resp, err := r.Query(ctx, "alpha")
	require.NoError(t, err)

	assert.Equal(t, "alpha", resp.Question)
	assert.Equal(t, "short", resp.Answer.Summary)
	assert.Equal(t, []int{1, 2}, resp.Answer.Pages)
	assert.Equal(t, "doc1.pdf", resp.Answer.Source)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Provide a structured JSON response")
	assert.Contains(t, gen.prompts[0], "Current Question: alpha")
}

func TestStructuredOutputRAGLLMModeRejectsInvalidJSON(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)
	gen := &stubGenerator{reply: "sorry, I cannot answer that"}

	r, err := NewStructuredOutputRAG(StructuredOutputRAGConfig{
		Collections: collections,
		Synthesize:  true,
		Generator:   gen,
		RetrieverOptions: []RetrieverOption{
			WithRetrieveStore(db),
			WithRetrieveEmbedder(emb),
		},
	})
	require.NoError(t, err)

	_, err = r.Query(ctx, "alpha")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON response")
}
