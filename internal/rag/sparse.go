package rag

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
)

// BM25Parameters holds the parameters for BM25 scoring.
type BM25Parameters struct {
	K1 float64 // Term saturation parameter (typically 1.2-2.0)
	B  float64 // Length normalization parameter (typically 0.75)
}

// DefaultBM25Parameters returns default BM25 parameters.
func DefaultBM25Parameters() BM25Parameters {
	return BM25Parameters{
		K1: 1.5,
		B:  0.75,
	}
}

// BM25Index is a sparse keyword index over chunk text, used alongside the
// vector store for hybrid retrieval. Chunks are keyed by their chunk ID.
type BM25Index struct {
	mu           sync.RWMutex
	docs         map[string]string
	metadata     map[string]map[string]string
	termFreq     map[string]map[string]int
	docFreq      map[string]int
	docLength    map[string]int
	avgDocLength float64
	totalDocs    int
	params       BM25Parameters
	preprocessor func(string) []string
}

// NewBM25Index creates a new BM25 index with default parameters.
func NewBM25Index() *BM25Index {
	return &BM25Index{
		docs:         make(map[string]string),
		metadata:     make(map[string]map[string]string),
		termFreq:     make(map[string]map[string]int),
		docFreq:      make(map[string]int),
		docLength:    make(map[string]int),
		params:       DefaultBM25Parameters(),
		preprocessor: defaultPreprocessor,
	}
}

func defaultPreprocessor(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// Add indexes a chunk under the given ID.
func (idx *BM25Index) Add(ctx context.Context, id, content string, metadata map[string]string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.docs[id] = content
	idx.metadata[id] = metadata

	terms := idx.preprocessor(content)
	termFreq := make(map[string]int)
	for _, term := range terms {
		termFreq[term]++
	}

	idx.termFreq[id] = termFreq
	idx.docLength[id] = len(terms)
	for term := range termFreq {
		idx.docFreq[term]++
	}

	idx.totalDocs++
	var totalLength int
	for _, length := range idx.docLength {
		totalLength += length
	}
	idx.avgDocLength = float64(totalLength) / float64(idx.totalDocs)

	return nil
}

// Remove drops a chunk from the index.
func (idx *BM25Index) Remove(ctx context.Context, id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if termFreq, exists := idx.termFreq[id]; exists {
		for term := range termFreq {
			idx.docFreq[term]--
			if idx.docFreq[term] == 0 {
				delete(idx.docFreq, term)
			}
		}
	}

	delete(idx.docs, id)
	delete(idx.metadata, id)
	delete(idx.termFreq, id)
	delete(idx.docLength, id)

	idx.totalDocs--
	if idx.totalDocs > 0 {
		var totalLength int
		for _, length := range idx.docLength {
			totalLength += length
		}
		idx.avgDocLength = float64(totalLength) / float64(idx.totalDocs)
	} else {
		idx.avgDocLength = 0
	}

	return nil
}

// Search scores all indexed chunks against the query with BM25 and returns
// the topK highest-scoring hits.
func (idx *BM25Index) Search(ctx context.Context, query string, topK int) ([]Hit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	queryTerms := idx.preprocessor(query)
	scores := make(map[string]float64)

	for _, term := range queryTerms {
		df, exists := idx.docFreq[term]
		if !exists {
			continue
		}
		idf := math.Log(1 + (float64(idx.totalDocs)-float64(df)+0.5)/(float64(df)+0.5))

		for docID, docTerms := range idx.termFreq {
			if tf, ok := docTerms[term]; ok {
				docLen := float64(idx.docLength[docID])
				numerator := float64(tf) * (idx.params.K1 + 1)
				denominator := float64(tf) + idx.params.K1*(1-idx.params.B+idx.params.B*docLen/idx.avgDocLength)
				scores[docID] += idf * numerator / denominator
			}
		}
	}

	hits := make([]Hit, 0, len(scores))
	for docID, score := range scores {
		hits = append(hits, Hit{
			ID:       docID,
			Score:    score,
			Text:     idx.docs[docID],
			Metadata: idx.metadata[docID],
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}

	return hits, nil
}

// SetParameters updates the BM25 parameters.
func (idx *BM25Index) SetParameters(params BM25Parameters) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.params = params
}

// SetPreprocessor sets a custom tokenization function.
func (idx *BM25Index) SetPreprocessor(preprocessor func(string) []string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.preprocessor = preprocessor
}
