package rag

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Chunk is a window of document text destined for embedding. Pages lists the
// 1-based page numbers the window spans, in reading order.
type Chunk struct {
	Text  string
	Words int
	Pages []int
}

// Chunker splits parsed pages into chunks.
type Chunker interface {
	ChunkPages(pages []PageText) []Chunk
}

// WordChunker implements a sliding window over the document's words:
// words accumulate across page boundaries until MaxWords is reached, the
// window is emitted, and the last Overlap words seed the next window so
// context carries across chunk boundaries.
type WordChunker struct {
	MaxWords int
	Overlap  int
}

// WordChunkerOption configures a WordChunker.
type WordChunkerOption func(*WordChunker)

// MaxWords sets the word count at which a window is emitted.
func MaxWords(n int) WordChunkerOption {
	return func(c *WordChunker) { c.MaxWords = n }
}

// Overlap sets how many trailing words are carried into the next window.
func Overlap(n int) WordChunkerOption {
	return func(c *WordChunker) { c.Overlap = n }
}

// NewWordChunker returns a WordChunker with a 500-word window and a
// 100-word overlap unless configured otherwise.
func NewWordChunker(opts ...WordChunkerOption) (*WordChunker, error) {
	c := &WordChunker{
		MaxWords: 500,
		Overlap:  100,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.MaxWords <= 0 {
		return nil, fmt.Errorf("max words must be positive, got %d", c.MaxWords)
	}
	if c.Overlap < 0 || c.Overlap >= c.MaxWords {
		return nil, fmt.Errorf("overlap must be in [0, max words), got %d", c.Overlap)
	}
	return c, nil
}

// ChunkPages walks the pages in order, accumulating words until the window
// fills. A chunk records every page it draws words from; the first page of a
// new window is the last page of the previous one, since the overlap words
// came from there. Pages without text contribute nothing. A trailing partial
// window is emitted if it has any non-blank content.
func (c *WordChunker) ChunkPages(pages []PageText) []Chunk {
	var chunks []Chunk
	var window []string
	var windowPages []int

	for _, pt := range pages {
		words := strings.Fields(pt.Text)
		for _, word := range words {
			window = append(window, word)
			if len(windowPages) == 0 || windowPages[len(windowPages)-1] != pt.Page {
				windowPages = append(windowPages, pt.Page)
			}

			if len(window) >= c.MaxWords {
				chunks = append(chunks, Chunk{
					Text:  strings.Join(window, " "),
					Words: len(window),
					Pages: append([]int(nil), windowPages...),
				})
				if c.Overlap > 0 {
					window = append([]string(nil), window[len(window)-c.Overlap:]...)
				} else {
					window = nil
				}
				windowPages = []int{pt.Page}
			}
		}
		if len(window) == 0 {
			windowPages = nil
		}
	}

	if len(window) > 0 {
		text := strings.Join(window, " ")
		if strings.TrimSpace(text) != "" {
			chunks = append(chunks, Chunk{
				Text:  text,
				Words: len(window),
				Pages: windowPages,
			})
		}
	}

	return chunks
}

// Chunk splits free-standing text that has no page structure.
func (c *WordChunker) Chunk(text string) []Chunk {
	return c.ChunkPages([]PageText{{Text: text, Page: 1}})
}

// TokenCounter counts tokens in text. Implementations range from whitespace
// word counting to model-accurate subword tokenization.
type TokenCounter interface {
	Count(text string) int
}

// DefaultTokenCounter approximates tokens by whitespace-separated words.
type DefaultTokenCounter struct{}

// Count returns the number of whitespace-separated words.
func (dtc *DefaultTokenCounter) Count(text string) int {
	return len(strings.Fields(text))
}

// TikTokenCounter counts tokens with the tiktoken encodings used by OpenAI
// models, for accurate prompt budgeting.
type TikTokenCounter struct {
	tke *tiktoken.Tiktoken
}

// NewTikTokenCounter creates a counter for the given encoding, such as
// "cl100k_base" for GPT-4 class models.
func NewTikTokenCounter(encoding string) (*TikTokenCounter, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}
	return &TikTokenCounter{tke: tke}, nil
}

// Count returns the exact token count under the configured encoding.
func (ttc *TikTokenCounter) Count(text string) int {
	return len(ttc.tke.Encode(text, nil, nil))
}
