package pdfrag

import (
	"context"
	"fmt"
)

// SimpleRAG answers a single question over the registered documents: one
// retrieval pass, then either the raw chunks or a synthesized answer.
type SimpleRAG struct {
	retriever   *Retriever
	collections []Collection
	llm         Generator
	history     *History
	synthesize  bool
	budget      int
	counter     TokenCounter
}

// SimpleRAGConfig holds configuration for SimpleRAG.
type SimpleRAGConfig struct {
	Collections []Collection
	TopK        int
	MinScore    float64
	Synthesize  bool
	HistorySize int

	// LLM settings, used when Synthesize is set. Generator overrides
	// LLMModel/APIKey.
	LLMModel  string
	APIKey    string
	Generator Generator

	// Prompt-context budgeting in tokens. Zero disables trimming.
	ContextBudget int
	TokenCounter  TokenCounter

	RetrieverOptions []RetrieverOption
}

// DefaultSimpleRAGConfig returns a default configuration.
func DefaultSimpleRAGConfig() SimpleRAGConfig {
	return SimpleRAGConfig{
		TopK:        5,
		Synthesize:  true,
		HistorySize: DefaultHistoryCapacity,
		LLMModel:    "gpt-4o-mini",
	}
}

// NewSimpleRAG creates a SimpleRAG over the given collections.
func NewSimpleRAG(config SimpleRAGConfig) (*SimpleRAG, error) {
	if config.TopK <= 0 {
		config.TopK = DefaultSimpleRAGConfig().TopK
	}

	opts := append([]RetrieverOption{
		WithTopK(config.TopK),
		WithMinScore(config.MinScore),
	}, config.RetrieverOptions...)
	retriever, err := NewRetriever(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create retriever: %w", err)
	}

	llm := config.Generator
	if llm == nil && config.Synthesize {
		llm, err = NewOpenAIGenerator(config.LLMModel, config.APIKey)
		if err != nil {
			return nil, err
		}
	}

	return &SimpleRAG{
		retriever:   retriever,
		collections: config.Collections,
		llm:         llm,
		history:     NewHistory(config.HistorySize),
		synthesize:  config.Synthesize,
		budget:      config.ContextBudget,
		counter:     config.TokenCounter,
	}, nil
}

// History exposes the conversation history.
func (s *SimpleRAG) History() *History {
	return s.history
}

// Close releases the underlying retriever.
func (s *SimpleRAG) Close() error {
	return s.retriever.Close()
}

// Query retrieves relevant chunks and answers the question. In raw mode the
// formatted chunks are returned directly; otherwise the LLM synthesizes an
// answer from the retrieved context.
func (s *SimpleRAG) Query(ctx context.Context, query string) (string, error) {
	if len(s.collections) == 0 {
		return "", fmt.Errorf("no document collections available to query")
	}

	chunks, err := s.retriever.Retrieve(ctx, query, collectionNames(s.collections))
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("no relevant documents found for the query")
	}

	if !s.synthesize {
		raw := formatChunksRaw(chunks, false)
		s.history.Add([]string{query}, raw)
		return raw, nil
	}

	chunks = trimToBudget(chunks, s.budget, s.counter, false)
	prompt := answerPrompt("", buildDocContext(chunks, false), query)
	answer, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	s.history.Add([]string{query}, answer)
	return answer, nil
}

func collectionNames(collections []Collection) []string {
	names := make([]string, len(collections))
	for i, c := range collections {
		names[i] = c.Name
	}
	return names
}
