package pdfrag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubEmbedder returns canned vectors for known texts and a unit vector on
// the first axis for everything else.
type stubEmbedder struct {
	vectors map[string][]float32
	dim     int
}

func newStubEmbedder(dim int) *stubEmbedder {
	return &stubEmbedder{vectors: make(map[string][]float32), dim: dim}
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	v := make([]float32, s.dim)
	v[0] = 1
	return v, nil
}

func (s *stubEmbedder) Dimension() int { return s.dim }

// stubGenerator records prompts and replies with a fixed string.
type stubGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

// newTestCorpus seeds a memory store with two documents and returns the
// store, their collection handles, and an embedder that maps "alpha" and
// "beta" to distinct directions.
func newTestCorpus(t *testing.T) (VectorDB, []Collection, *stubEmbedder) {
	t.Helper()
	ctx := context.Background()

	db, err := NewVectorDB(SetVectorDBType("memory"))
	require.NoError(t, err)
	require.NoError(t, db.Connect(ctx))

	require.NoError(t, db.CreateCollection(ctx, "pdf_aaa", 2))
	require.NoError(t, db.Insert(ctx, "pdf_aaa", []Record{
		{
			ID: "aaa_0", Text: "alpha facts from the first document", Embedding: []float32{1, 0},
			Metadata: map[string]string{"chunk_id": "aaa_0", "page_numbers": "1,2", "filename": "doc1.pdf", "page_count": "4"},
		},
		{
			ID: "aaa_1", Text: "beta facts from the first document", Embedding: []float32{0, 1},
			Metadata: map[string]string{"chunk_id": "aaa_1", "page_numbers": "3", "filename": "doc1.pdf", "page_count": "4"},
		},
	}))

	require.NoError(t, db.CreateCollection(ctx, "pdf_bbb", 2))
	require.NoError(t, db.Insert(ctx, "pdf_bbb", []Record{
		{
			ID: "bbb_0", Text: "alpha notes from the second document", Embedding: []float32{0.8, 0.6},
			Metadata: map[string]string{"chunk_id": "bbb_0", "page_numbers": "1", "filename": "doc2.pdf", "page_count": "2"},
		},
	}))

	collections := []Collection{
		{Name: "pdf_aaa", Filename: "doc1.pdf", PageCount: 4, Chunks: 2},
		{Name: "pdf_bbb", Filename: "doc2.pdf", PageCount: 2, Chunks: 1},
	}

	emb := newStubEmbedder(2)
	emb.vectors["alpha"] = []float32{1, 0}
	emb.vectors["beta"] = []float32{0, 1}

	return db, collections, emb
}

func newTestRetriever(t *testing.T, db VectorDB, emb Embedder, opts ...RetrieverOption) *Retriever {
	t.Helper()
	opts = append([]RetrieverOption{
		WithRetrieveStore(db),
		WithRetrieveEmbedder(emb),
	}, opts...)
	r, err := NewRetriever(opts...)
	require.NoError(t, err)
	return r
}
