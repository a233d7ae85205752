package pdfrag

import (
	"time"

	"github.com/nmehta6/pdfrag/internal/rag"
)

// Record is a stored chunk: id, text, embedding, and metadata.
type Record = rag.Record

// Hit is a single search result. Score is cosine similarity.
type Hit = rag.Hit

// VectorDB abstracts the vector store backends.
type VectorDB = rag.VectorDB

// VectorDBConfig holds the configuration for creating a VectorDB.
type VectorDBConfig = rag.Config

// VectorDBOption is a function type for configuring VectorDBConfig.
type VectorDBOption func(*VectorDBConfig)

// SetVectorDBType selects the backend: "chromem" (default), "milvus",
// or "memory".
func SetVectorDBType(dbType string) VectorDBOption {
	return func(c *VectorDBConfig) {
		c.Type = dbType
	}
}

// SetVectorDBAddress sets the backend address: a directory path for chromem,
// host:port for milvus.
func SetVectorDBAddress(address string) VectorDBOption {
	return func(c *VectorDBConfig) {
		c.Address = address
	}
}

// SetVectorDBDimension sets the embedding dimension for new collections.
func SetVectorDBDimension(dimension int) VectorDBOption {
	return func(c *VectorDBConfig) {
		c.Dimension = dimension
	}
}

// SetVectorDBTimeout sets the operation timeout.
func SetVectorDBTimeout(timeout time.Duration) VectorDBOption {
	return func(c *VectorDBConfig) {
		c.Timeout = timeout
	}
}

// WithVectorDBParameter sets a backend-specific parameter.
func WithVectorDBParameter(key string, value interface{}) VectorDBOption {
	return func(c *VectorDBConfig) {
		if c.Parameters == nil {
			c.Parameters = make(map[string]interface{})
		}
		c.Parameters[key] = value
	}
}

// NewVectorDB creates a vector store backend from the given options.
func NewVectorDB(opts ...VectorDBOption) (VectorDB, error) {
	cfg := &VectorDBConfig{
		Type:    "chromem",
		Timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return rag.NewVectorDB(cfg)
}
