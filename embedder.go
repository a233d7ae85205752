package pdfrag

import (
	"github.com/nmehta6/pdfrag/internal/rag"
	"github.com/nmehta6/pdfrag/internal/rag/providers"
)

// EmbeddedChunk is a chunk of text with its embedding and metadata, ready
// to be stored.
type EmbeddedChunk = rag.EmbeddedChunk

// Embedder converts text into a vector representation.
type Embedder = providers.Embedder

// EmbedderOption is a function type for configuring the Embedder.
type EmbedderOption = rag.EmbedderOption

// SetEmbedderProvider sets the provider for the Embedder, e.g. "openai".
func SetEmbedderProvider(provider string) EmbedderOption {
	return rag.SetProvider(provider)
}

// SetEmbedderModel sets the embedding model, e.g. "text-embedding-3-small".
func SetEmbedderModel(model string) EmbedderOption {
	return rag.SetModel(model)
}

// SetEmbedderAPIKey sets the authentication key for the embedding service.
func SetEmbedderAPIKey(apiKey string) EmbedderOption {
	return rag.SetAPIKey(apiKey)
}

// SetEmbedderOption sets a provider-specific option, e.g. "api_url".
func SetEmbedderOption(key string, value interface{}) EmbedderOption {
	return rag.SetOption(key, value)
}

// NewEmbedder creates an Embedder from the registered provider factories.
func NewEmbedder(opts ...EmbedderOption) (Embedder, error) {
	return rag.NewEmbedder(opts...)
}

// EmbeddingService embeds chunk batches, optionally rate limited.
type EmbeddingService = rag.EmbeddingService

// EmbeddingServiceOption configures an EmbeddingService.
type EmbeddingServiceOption = rag.EmbeddingServiceOption

// WithRequestsPerMinute caps embedding calls at rpm requests per minute.
func WithRequestsPerMinute(rpm int) EmbeddingServiceOption {
	return rag.WithRequestsPerMinute(rpm)
}

// NewEmbeddingService wraps an Embedder for batch use.
func NewEmbeddingService(embedder Embedder, opts ...EmbeddingServiceOption) *EmbeddingService {
	return rag.NewEmbeddingService(embedder, opts...)
}
