package rag

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/nmehta6/pdfrag/internal/rag/providers"
)

// EmbedderConfig selects and configures an embedding provider.
type EmbedderConfig struct {
	Provider string
	Options  map[string]interface{}
}

// EmbedderOption configures an EmbedderConfig.
type EmbedderOption func(*EmbedderConfig)

// SetProvider selects the embedding provider by registry name.
func SetProvider(provider string) EmbedderOption {
	return func(c *EmbedderConfig) { c.Provider = provider }
}

// SetModel selects the embedding model.
func SetModel(model string) EmbedderOption {
	return func(c *EmbedderConfig) { c.Options["model"] = model }
}

// SetAPIKey sets the provider API key.
func SetAPIKey(apiKey string) EmbedderOption {
	return func(c *EmbedderConfig) { c.Options["api_key"] = apiKey }
}

// SetOption sets a provider-specific option.
func SetOption(key string, value interface{}) EmbedderOption {
	return func(c *EmbedderConfig) { c.Options[key] = value }
}

// NewEmbedder builds an Embedder from the registered provider factories.
func NewEmbedder(opts ...EmbedderOption) (providers.Embedder, error) {
	config := &EmbedderConfig{
		Options: make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(config)
	}
	if config.Provider == "" {
		return nil, fmt.Errorf("provider must be specified")
	}
	factory, err := providers.GetEmbedderFactory(config.Provider)
	if err != nil {
		return nil, err
	}
	return factory(config.Options)
}

// EmbeddedChunk pairs a chunk with its embedding and storage metadata.
type EmbeddedChunk struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  map[string]string
}

// EmbeddingService embeds chunk batches, pacing requests with a rate
// limiter so provider request-per-minute quotas hold during large ingests.
type EmbeddingService struct {
	embedder providers.Embedder
	limiter  *rate.Limiter
}

// EmbeddingServiceOption configures an EmbeddingService.
type EmbeddingServiceOption func(*EmbeddingService)

// WithRequestsPerMinute caps the embedding request rate.
func WithRequestsPerMinute(rpm int) EmbeddingServiceOption {
	return func(s *EmbeddingService) {
		s.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60), rpm)
	}
}

// NewEmbeddingService wraps an embedder. Without options the request rate
// is unlimited.
func NewEmbeddingService(embedder providers.Embedder, opts ...EmbeddingServiceOption) *EmbeddingService {
	s := &EmbeddingService{
		embedder: embedder,
		limiter:  rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed produces the embedding for a single text, respecting the rate limit.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.embedder.Embed(ctx, text)
}

// Dimension reports the vector size of the underlying embedder.
func (s *EmbeddingService) Dimension() int {
	return s.embedder.Dimension()
}

// EmbedChunks embeds every chunk of a document. The hash scopes chunk IDs
// and the metadata carried alongside each vector records the chunk's
// provenance: its id, page numbers, source filename, and page count.
func (s *EmbeddingService) EmbedChunks(ctx context.Context, hash, filename string, pageCount int, chunks []Chunk) ([]EmbeddedChunk, error) {
	embedded := make([]EmbeddedChunk, 0, len(chunks))
	for i, chunk := range chunks {
		embedding, err := s.Embed(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("error embedding chunk %d: %w", i+1, err)
		}

		id := ChunkID(hash, i)
		embedded = append(embedded, EmbeddedChunk{
			ID:        id,
			Text:      chunk.Text,
			Embedding: embedding,
			Metadata: map[string]string{
				"chunk_id":     id,
				"page_numbers": joinPages(chunk.Pages),
				"filename":     filename,
				"page_count":   fmt.Sprintf("%d", pageCount),
			},
		})
		GlobalLogger.Debug("Embedded chunk", "id", id, "dimension", len(embedding))
	}
	return embedded, nil
}

func joinPages(pages []int) string {
	if len(pages) == 0 {
		return ""
	}
	out := fmt.Sprintf("%d", pages[0])
	for _, p := range pages[1:] {
		out += fmt.Sprintf(",%d", p)
	}
	return out
}

// ParsePages decodes the comma-separated page list stored in chunk metadata.
func ParsePages(s string) []int {
	if s == "" {
		return nil
	}
	var pages []int
	for _, part := range strings.Split(s, ",") {
		if p, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			pages = append(pages, p)
		}
	}
	return pages
}
