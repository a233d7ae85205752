package rag

import (
	"context"
	"fmt"
	"time"
)

// Record is one stored chunk: its id, text, embedding, and provenance
// metadata (chunk_id, page_numbers, filename, page_count).
type Record struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]string
}

// Hit is one query match. Score is cosine similarity in [-1, 1]; backends
// convert their native metric so scores merge across collections.
type Hit struct {
	ID       string
	Score    float64
	Text     string
	Metadata map[string]string
}

// VectorDB is the storage contract of the pipeline. Each ingested document
// gets its own collection; queries run per collection and are merged by the
// retriever.
type VectorDB interface {
	Connect(ctx context.Context) error
	Close() error
	HasCollection(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, name string, dimension int) error
	DropCollection(ctx context.Context, name string) error
	Count(ctx context.Context, name string) (int, error)
	Insert(ctx context.Context, name string, records []Record) error
	Flush(ctx context.Context, name string) error
	Query(ctx context.Context, name string, embedding []float32, topK int) ([]Hit, error)
	ListCollections(ctx context.Context) ([]string, error)
	Reset(ctx context.Context) error
}

// Config selects and parameterizes a VectorDB backend.
type Config struct {
	Type       string // "chromem", "milvus", or "memory"
	Address    string // connection address or on-disk path
	Dimension  int
	Timeout    time.Duration
	Parameters map[string]interface{}
}

// NewVectorDB builds the backend named by cfg.Type.
func NewVectorDB(cfg *Config) (VectorDB, error) {
	switch cfg.Type {
	case "chromem":
		return newChromemDB(cfg)
	case "milvus":
		return newMilvusDB(cfg)
	case "memory":
		return newMemoryDB(cfg)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// SimilarityFromDistance converts a backend's reported distance to cosine
// similarity. For squared L2 over unit vectors, d = 2 - 2*cos, so
// cos = 1 - d/2.
func SimilarityFromDistance(distance float64) float64 {
	return 1 - distance/2
}
