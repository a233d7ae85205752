package pdfrag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieveMergesCollections(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)
	r := newTestRetriever(t, db, emb, WithTopK(3))

	chunks, err := r.Retrieve(ctx, "alpha", collectionNames(collections))
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	// Exact match first, then the angled vector, then the orthogonal one.
	assert.Equal(t, "aaa_0", chunks[0].ChunkID)
	assert.Equal(t, "bbb_0", chunks[1].ChunkID)
	assert.Equal(t, "aaa_1", chunks[2].ChunkID)

	assert.InDelta(t, 1.0, chunks[0].Similarity, 1e-6)
	assert.InDelta(t, 0.8, chunks[1].Similarity, 1e-6)

	assert.Equal(t, "doc1.pdf", chunks[0].Filename)
	assert.Equal(t, []int{1, 2}, chunks[0].Pages)
}

func TestRetrieveTopKLimitsGlobally(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)
	r := newTestRetriever(t, db, emb, WithTopK(1))

	chunks, err := r.Retrieve(ctx, "alpha", collectionNames(collections))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "aaa_0", chunks[0].ChunkID)
}

func TestRetrieveMinScoreFilters(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)
	r := newTestRetriever(t, db, emb, WithTopK(5), WithMinScore(0.5))

	chunks, err := r.Retrieve(ctx, "alpha", collectionNames(collections))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.GreaterOrEqual(t, c.Similarity, 0.5)
	}
}

func TestRetrieveSearchesAllCollectionsWhenUnspecified(t *testing.T) {
	ctx := context.Background()
	db, _, emb := newTestCorpus(t)
	r := newTestRetriever(t, db, emb, WithTopK(5))

	chunks, err := r.Retrieve(ctx, "alpha", nil)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
}

func TestRetrieveCallback(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)

	var seen []string
	r := newTestRetriever(t, db, emb, WithTopK(2), WithRetrieveCallback(func(c ScoredChunk) {
		seen = append(seen, c.ChunkID)
	}))

	_, err := r.Retrieve(ctx, "alpha", collectionNames(collections))
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa_0", "bbb_0"}, seen)
}

func TestRetrieveMultiDedupsAcrossQueries(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)
	r := newTestRetriever(t, db, emb, WithTopK(2))

	chunks, err := r.RetrieveMulti(ctx, []string{"alpha", "beta"}, collectionNames(collections))
	require.NoError(t, err)

	ids := make(map[string]int)
	for _, c := range chunks {
		ids[c.ChunkID]++
	}
	for id, n := range ids {
		assert.Equal(t, 1, n, "chunk %s returned more than once", id)
	}
	assert.Contains(t, ids, "aaa_1") // surfaced by the beta query
}

func TestRetrieveHybridFusesSparseResults(t *testing.T) {
	ctx := context.Background()
	db, collections, emb := newTestCorpus(t)

	sparse := NewBM25Index()
	require.NoError(t, sparse.Add(ctx, "aaa_1", "beta facts from the first document",
		map[string]string{"chunk_id": "aaa_1", "page_numbers": "3", "filename": "doc1.pdf"}))

	r := newTestRetriever(t, db, emb, WithTopK(3), WithHybrid(sparse, 0.5, 0.5))

	// "beta" matches aaa_1 both densely and sparsely, so fusion ranks it
	// first even though other chunks appear in the dense list.
	chunks, err := r.Retrieve(ctx, "beta", collectionNames(collections))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "aaa_1", chunks[0].ChunkID)
}

func TestRetrieveHybridRespectsCollectionScope(t *testing.T) {
	ctx := context.Background()
	db, _, emb := newTestCorpus(t)

	// Index chunks from both documents; only pdf_aaa is queried.
	sparse := NewBM25Index()
	require.NoError(t, sparse.Add(ctx, "aaa_0", "alpha facts from the first document",
		map[string]string{"chunk_id": "aaa_0", "filename": "doc1.pdf", "collection": "pdf_aaa"}))
	require.NoError(t, sparse.Add(ctx, "bbb_0", "alpha notes from the second document",
		map[string]string{"chunk_id": "bbb_0", "filename": "doc2.pdf", "collection": "pdf_bbb"}))

	r := newTestRetriever(t, db, emb, WithTopK(5), WithHybrid(sparse, 0.5, 0.5))

	chunks, err := r.Retrieve(ctx, "alpha", []string{"pdf_aaa"})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.NotEqual(t, "bbb_0", c.ChunkID, "chunk from unselected collection returned")
		assert.NotEqual(t, "doc2.pdf", c.Filename)
	}
}

func TestRetrieveHybridScopesUntaggedEntriesByChunkID(t *testing.T) {
	ctx := context.Background()
	db, _, emb := newTestCorpus(t)

	sparse := NewBM25Index()
	require.NoError(t, sparse.Add(ctx, "bbb_0", "alpha notes from the second document",
		map[string]string{"chunk_id": "bbb_0", "filename": "doc2.pdf"}))

	r := newTestRetriever(t, db, emb, WithTopK(5), WithHybrid(sparse, 0.5, 0.5))

	chunks, err := r.Retrieve(ctx, "alpha", []string{"pdf_aaa"})
	require.NoError(t, err)
	for _, c := range chunks {
		assert.NotEqual(t, "bbb_0", c.ChunkID)
	}
}

func TestRetrieverClosePropagation(t *testing.T) {
	db, _, emb := newTestCorpus(t)
	r := newTestRetriever(t, db, emb)
	// Injected stores are left open for the caller.
	require.NoError(t, r.Close())

	_, err := db.ListCollections(context.Background())
	assert.NoError(t, err)
}
