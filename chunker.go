// Package pdfrag provides a high-level interface for registering PDF
// documents into per-document vector collections and answering questions
// over them with a family of retrieval-augmented generation strategies.
package pdfrag

import (
	"github.com/nmehta6/pdfrag/internal/rag"
)

// Chunk represents a window of words with the page numbers it spans.
type Chunk = rag.Chunk

// Chunker defines the interface for text chunking implementations.
type Chunker interface {
	// ChunkPages splits page-tracked text into overlapping word windows.
	ChunkPages(pages []PageText) []Chunk
	// Chunk splits plain text, treating it as a single page.
	Chunk(text string) []Chunk
}

// TokenCounter defines the interface for counting tokens in text.
type TokenCounter interface {
	Count(text string) int
}

// ChunkerOption is a function type for configuring Chunker instances.
type ChunkerOption = rag.WordChunkerOption

// NewChunker creates a word-window chunker. By default each chunk holds up
// to 500 words and carries the last 100 words into the next chunk.
func NewChunker(options ...ChunkerOption) (Chunker, error) {
	return rag.NewWordChunker(options...)
}

// MaxWords sets the maximum number of words per chunk.
func MaxWords(n int) ChunkerOption {
	return rag.MaxWords(n)
}

// Overlap sets the number of words carried over between adjacent chunks.
func Overlap(n int) ChunkerOption {
	return rag.Overlap(n)
}

// DefaultTokenCounter returns a whitespace word counter.
func DefaultTokenCounter() TokenCounter {
	return &rag.DefaultTokenCounter{}
}

// NewTikTokenCounter returns a TokenCounter backed by the named tiktoken
// encoding, e.g. "cl100k_base".
func NewTikTokenCounter(encoding string) (TokenCounter, error) {
	return rag.NewTikTokenCounter(encoding)
}
