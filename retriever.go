package pdfrag

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nmehta6/pdfrag/internal/rag"
)

// BM25Index is a sparse keyword index used for hybrid retrieval.
type BM25Index = rag.BM25Index

// NewBM25Index creates an empty sparse index.
func NewBM25Index() *BM25Index {
	return rag.NewBM25Index()
}

// RRFReranker fuses dense and sparse rankings.
type RRFReranker = rag.RRFReranker

// NewRRFReranker creates a reranker with the given k constant (60 when <= 0).
func NewRRFReranker(k float64) *RRFReranker {
	return rag.NewRRFReranker(k)
}

// ScoredChunk is one retrieved chunk with its provenance. Similarity is
// cosine similarity in vector-only mode and a fused rank score in hybrid
// mode.
type ScoredChunk struct {
	Content    string
	Similarity float64
	ChunkID    string
	Pages      []int
	Filename   string
}

// Retriever embeds queries and searches registered collections, merging
// per-collection results into one global ranking.
type Retriever struct {
	config   *RetrieverConfig
	db       VectorDB
	embedder *EmbeddingService
	ownsDB   bool
}

// RetrieverConfig holds settings for the retrieval process.
type RetrieverConfig struct {
	// Storage settings
	DBType    string
	DBAddress string
	DB        VectorDB // injected store overrides DBType/DBAddress

	// Search settings
	TopK     int
	MinScore float64

	// Hybrid search settings
	Sparse       *BM25Index
	DenseWeight  float64
	SparseWeight float64

	// Embedding settings
	Provider string
	Model    string
	APIKey   string
	Embedder Embedder // injected embedder overrides Provider/Model/APIKey

	Timeout time.Duration

	// Callbacks
	OnResult func(ScoredChunk)
}

// RetrieverOption configures the retriever.
type RetrieverOption func(*RetrieverConfig)

// WithTopK sets the number of results returned per query.
func WithTopK(k int) RetrieverOption {
	return func(c *RetrieverConfig) {
		c.TopK = k
	}
}

// WithMinScore drops results scoring below the threshold. Only applies in
// vector-only mode; hybrid rank scores are not similarities.
func WithMinScore(score float64) RetrieverOption {
	return func(c *RetrieverConfig) {
		c.MinScore = score
	}
}

// WithRetrieveDB routes retrieval to the named backend at the given address.
func WithRetrieveDB(dbType, address string) RetrieverOption {
	return func(c *RetrieverConfig) {
		c.DBType = dbType
		c.DBAddress = address
	}
}

// WithRetrieveStore injects an existing vector store. The store is not
// closed by the retriever.
func WithRetrieveStore(db VectorDB) RetrieverOption {
	return func(c *RetrieverConfig) {
		c.DB = db
	}
}

// WithRetrieveEmbedding configures the embedding provider for queries.
func WithRetrieveEmbedding(provider, model, apiKey string) RetrieverOption {
	return func(c *RetrieverConfig) {
		c.Provider = provider
		c.Model = model
		c.APIKey = apiKey
	}
}

// WithRetrieveEmbedder injects an existing embedder.
func WithRetrieveEmbedder(e Embedder) RetrieverOption {
	return func(c *RetrieverConfig) {
		c.Embedder = e
	}
}

// WithHybrid enables hybrid retrieval against the given sparse index,
// fusing dense and sparse results with Reciprocal Rank Fusion.
func WithHybrid(sparse *BM25Index, denseWeight, sparseWeight float64) RetrieverOption {
	return func(c *RetrieverConfig) {
		c.Sparse = sparse
		c.DenseWeight = denseWeight
		c.SparseWeight = sparseWeight
	}
}

// WithRetrieveCallback invokes fn for every result that survives filtering.
func WithRetrieveCallback(fn func(ScoredChunk)) RetrieverOption {
	return func(c *RetrieverConfig) {
		c.OnResult = fn
	}
}

func defaultRetrieverConfig() *RetrieverConfig {
	return &RetrieverConfig{
		DBType:       "chromem",
		TopK:         5,
		MinScore:     0,
		DenseWeight:  0.7,
		SparseWeight: 0.3,
		Provider:     "openai",
		Model:        "text-embedding-3-small",
		Timeout:      30 * time.Second,
	}
}

// NewRetriever creates a Retriever and connects its vector store.
func NewRetriever(opts ...RetrieverOption) (*Retriever, error) {
	cfg := defaultRetrieverConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	r := &Retriever{config: cfg}

	db := cfg.DB
	if db == nil {
		var err error
		db, err = NewVectorDB(
			SetVectorDBType(cfg.DBType),
			SetVectorDBAddress(cfg.DBAddress),
			SetVectorDBTimeout(cfg.Timeout),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create vector store: %w", err)
		}
		r.ownsDB = true
	}
	if err := db.Connect(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to vector store: %w", err)
	}
	r.db = db

	embedder := cfg.Embedder
	if embedder == nil {
		var err error
		embedder, err = NewEmbedder(
			SetEmbedderProvider(cfg.Provider),
			SetEmbedderModel(cfg.Model),
			SetEmbedderAPIKey(cfg.APIKey),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
	}
	r.embedder = NewEmbeddingService(embedder)

	return r, nil
}

// Close releases the vector store if the retriever created it.
func (r *Retriever) Close() error {
	if r.ownsDB {
		return r.db.Close()
	}
	return nil
}

// DB exposes the underlying vector store.
func (r *Retriever) DB() VectorDB {
	return r.db
}

// Collections lists all collections in the store.
func (r *Retriever) Collections(ctx context.Context) ([]string, error) {
	return r.db.ListCollections(ctx)
}

// Retrieve embeds the query once, searches every named collection, and
// returns the global TopK by descending similarity. Duplicate chunk IDs
// across collections are dropped. An empty collections slice searches every
// collection in the store.
func (r *Retriever) Retrieve(ctx context.Context, query string, collections []string) ([]ScoredChunk, error) {
	if len(collections) == 0 {
		var err error
		collections, err = r.db.ListCollections(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list collections: %w", err)
		}
	}
	if len(collections) == 0 {
		return nil, nil
	}

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	var dense []Hit
	for _, coll := range collections {
		hits, err := r.db.Query(ctx, coll, embedding, r.config.TopK)
		if err != nil {
			return nil, fmt.Errorf("failed to query collection %s: %w", coll, err)
		}
		dense = append(dense, hits...)
	}
	sort.Slice(dense, func(i, j int) bool {
		return dense[i].Score > dense[j].Score
	})

	merged := dense
	if r.config.Sparse != nil {
		sparse, err := r.config.Sparse.Search(ctx, query, r.config.TopK)
		if err != nil {
			return nil, fmt.Errorf("sparse search failed: %w", err)
		}
		// The sparse index spans every ingested chunk; keep only hits
		// belonging to the queried collections.
		allowed := make(map[string]bool, len(collections))
		for _, coll := range collections {
			allowed[coll] = true
		}
		scoped := make([]Hit, 0, len(sparse))
		for _, hit := range sparse {
			if allowed[hitCollection(hit)] {
				scoped = append(scoped, hit)
			}
		}
		merged, err = NewRRFReranker(0).Rerank(ctx, query, dense, scoped,
			r.config.DenseWeight, r.config.SparseWeight)
		if err != nil {
			return nil, fmt.Errorf("failed to fuse results: %w", err)
		}
	}

	seen := make(map[string]bool)
	results := make([]ScoredChunk, 0, r.config.TopK)
	for _, hit := range merged {
		if len(results) >= r.config.TopK {
			break
		}
		if r.config.Sparse == nil && hit.Score < r.config.MinScore {
			continue
		}
		chunk := scoredChunkFromHit(hit)
		if seen[chunk.ChunkID] {
			continue
		}
		seen[chunk.ChunkID] = true
		if r.config.OnResult != nil {
			r.config.OnResult(chunk)
		}
		results = append(results, chunk)
	}
	return results, nil
}

// RetrieveMulti runs Retrieve for each query and merges the results,
// dropping chunks already returned by an earlier query.
func (r *Retriever) RetrieveMulti(ctx context.Context, queries []string, collections []string) ([]ScoredChunk, error) {
	seen := make(map[string]bool)
	var results []ScoredChunk
	for _, query := range queries {
		chunks, err := r.Retrieve(ctx, query, collections)
		if err != nil {
			return nil, err
		}
		for _, chunk := range chunks {
			if seen[chunk.ChunkID] {
				continue
			}
			seen[chunk.ChunkID] = true
			results = append(results, chunk)
		}
	}
	return results, nil
}

// hitCollection resolves which collection a sparse hit belongs to: the
// collection tag written at ingest, or the chunk ID prefix (`<hash>_<i>`
// chunks live in `pdf_<hash>`) for entries indexed without one.
func hitCollection(hit Hit) string {
	if c := hit.Metadata["collection"]; c != "" {
		return c
	}
	if i := strings.LastIndex(hit.ID, "_"); i > 0 {
		return "pdf_" + hit.ID[:i]
	}
	return ""
}

func scoredChunkFromHit(hit Hit) ScoredChunk {
	chunk := ScoredChunk{
		Content:    hit.Text,
		Similarity: hit.Score,
		ChunkID:    hit.ID,
	}
	if hit.Metadata != nil {
		if id, ok := hit.Metadata["chunk_id"]; ok && id != "" {
			chunk.ChunkID = id
		}
		chunk.Filename = hit.Metadata["filename"]
		chunk.Pages = rag.ParsePages(hit.Metadata["page_numbers"])
	}
	return chunk
}
