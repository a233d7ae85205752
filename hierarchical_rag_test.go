package pdfrag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHierarchicalRAGCoarseSelectKeepsLargestDocuments(t *testing.T) {
	db, collections, emb := newTestCorpus(t)

	r, err := NewHierarchicalRAG(HierarchicalRAGConfig{
		Collections: collections,
		CoarseK:     1,
		RetrieverOptions: []RetrieverOption{
			WithRetrieveStore(db),
			WithRetrieveEmbedder(emb),
		},
	})
	require.NoError(t, err)

	coarse := r.coarseSelect()
	require.Len(t, coarse, 1)
	assert.Equal(t, "pdf_aaa", coarse[0].Name)
}

func TestHierarchicalRAGQueriesOnlySelectedDocuments(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)

	r, err := NewHierarchicalRAG(HierarchicalRAGConfig{
		Collections: collections,
		CoarseK:     1,
		FineK:       3,
		Synthesize:  false,
		RetrieverOptions: []RetrieverOption{
			WithRetrieveStore(db),
			WithRetrieveEmbedder(emb),
		},
	})
	require.NoError(t, err)

	out, err := r.Query(ctx, "alpha")
	require.NoError(t, err)

	// pdf_aaa has the higher page count, so doc2.pdf never gets searched.
	assert.Contains(t, out, "PDF: doc1.pdf")
	assert.NotContains(t, out, "PDF: doc2.pdf")
}

func TestHierarchicalRAGDefaultsSearchBothStages(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)
	gen := &stubGenerator{reply: "hierarchical answer"}

	r, err := NewHierarchicalRAG(HierarchicalRAGConfig{
		Collections: collections,
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
	assert.Equal(t, "hierarchical answer", out)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "PDF: doc1.pdf")
	assert.Contains(t, gen.prompts[0], "PDF: doc2.pdf")
}
