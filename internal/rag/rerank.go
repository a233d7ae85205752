package rag

import (
	"context"
	"sort"
)

// RRFReranker fuses dense and sparse hit lists with Reciprocal Rank Fusion.
type RRFReranker struct {
	k float64 // Constant to prevent division by zero and control ranking influence
}

// NewRRFReranker creates a new RRF reranker with the given k parameter.
func NewRRFReranker(k float64) *RRFReranker {
	if k <= 0 {
		k = 60 // Default value from RRF paper
	}
	return &RRFReranker{k: k}
}

// Rerank combines dense and sparse hits into a single ranking. Scores on the
// returned hits are fused RRF scores, not similarities.
func (r *RRFReranker) Rerank(
	ctx context.Context,
	query string,
	denseHits, sparseHits []Hit,
	denseWeight, sparseWeight float64,
) ([]Hit, error) {
	totalWeight := denseWeight + sparseWeight
	if totalWeight > 0 {
		denseWeight /= totalWeight
		sparseWeight /= totalWeight
	} else {
		denseWeight = 0.5
		sparseWeight = 0.5
	}

	scores := make(map[string]float64)
	hitMap := make(map[string]Hit)

	for rank, hit := range denseHits {
		rrf := 1.0 / (float64(rank+1) + r.k)
		scores[hit.ID] = rrf * denseWeight
		hitMap[hit.ID] = hit
	}

	for rank, hit := range sparseHits {
		rrf := 1.0 / (float64(rank+1) + r.k)
		if score, exists := scores[hit.ID]; exists {
			scores[hit.ID] = score + rrf*sparseWeight
		} else {
			scores[hit.ID] = rrf * sparseWeight
			hitMap[hit.ID] = hit
		}
	}

	fused := make([]Hit, 0, len(scores))
	for id, score := range scores {
		hit := hitMap[id]
		hit.Score = score
		fused = append(fused, hit)
	}

	sort.Slice(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	return fused, nil
}
