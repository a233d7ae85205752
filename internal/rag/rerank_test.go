package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRRFRerankerMergesBothLists(t *testing.T) {
	ctx := context.Background()
	r := NewRRFReranker(60)

	dense := []Hit{
		{ID: "a", Score: 0.9, Text: "dense a"},
		{ID: "b", Score: 0.8, Text: "dense b"},
	}
	sparse := []Hit{
		{ID: "b", Score: 4.2, Text: "sparse b"},
		{ID: "c", Score: 3.1, Text: "sparse c"},
	}

	fused, err := r.Rerank(ctx, "q", dense, sparse, 0.5, 0.5)
	require.NoError(t, err)
	require.Len(t, fused, 3)

	// b appears in both rankings, so it wins.
	assert.Equal(t, "b", fused[0].ID)
	assert.Equal(t, "dense b", fused[0].Text)
}

func TestRRFRerankerWeights(t *testing.T) {
	ctx := context.Background()
	r := NewRRFReranker(60)

	dense := []Hit{{ID: "a"}}
	sparse := []Hit{{ID: "b"}}

	fused, err := r.Rerank(ctx, "q", dense, sparse, 1.0, 0.0)
	require.NoError(t, err)
	require.Len(t, fused, 2)
	assert.Equal(t, "a", fused[0].ID)

	fused, err = r.Rerank(ctx, "q", dense, sparse, 0.0, 1.0)
	require.NoError(t, err)
	assert.Equal(t, "b", fused[0].ID)
}

func TestRRFRerankerZeroWeightsFallBackToEven(t *testing.T) {
	ctx := context.Background()
	r := NewRRFReranker(0) // also exercises the default k

	dense := []Hit{{ID: "a"}, {ID: "b"}}
	fused, err := r.Rerank(ctx, "q", dense, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, fused, 2)
	assert.Equal(t, "a", fused[0].ID)
	assert.Greater(t, fused[0].Score, fused[1].Score)
}
