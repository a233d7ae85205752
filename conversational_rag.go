package pdfrag

import (
	"context"
	"fmt"
)

// ConversationalRAG answers questions over the registered documents while
// carrying the conversation history into every prompt, so follow-up
// questions can refer back to earlier turns.
type ConversationalRAG struct {
	retriever   *Retriever
	collections []Collection
	llm         Generator
	history     *History
	synthesize  bool
	budget      int
	counter     TokenCounter
}

// ConversationalRAGConfig holds configuration for ConversationalRAG.
type ConversationalRAGConfig struct {
	Collections []Collection
	TopK        int
	MinScore    float64
	Synthesize  bool
	HistorySize int

	LLMModel  string
	APIKey    string
	Generator Generator

	ContextBudget int
	TokenCounter  TokenCounter

	RetrieverOptions []RetrieverOption
}

// NewConversationalRAG creates a ConversationalRAG over the given
// collections.
func NewConversationalRAG(config ConversationalRAGConfig) (*ConversationalRAG, error) {
	if config.TopK <= 0 {
		config.TopK = 5
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

	return &ConversationalRAG{
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
func (c *ConversationalRAG) History() *History {
	return c.history
}

// Close releases the underlying retriever.
func (c *ConversationalRAG) Close() error {
	return c.retriever.Close()
}

// Query retrieves relevant chunks and answers the question in the context
// of the conversation so far. Every turn, raw or synthesized, is appended
// to the history.
func (c *ConversationalRAG) Query(ctx context.Context, query string) (string, error) {
	if len(c.collections) == 0 {
		return "", fmt.Errorf("no document collections available to query")
	}

	chunks, err := c.retriever.Retrieve(ctx, query, collectionNames(c.collections))
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("no relevant documents found for the query")
	}

	if !c.synthesize {
		raw := formatChunksRaw(chunks, false)
		c.history.Add([]string{query}, raw)
		return raw, nil
	}

	chunks = trimToBudget(chunks, c.budget, c.counter, false)
	prompt := answerPrompt(c.history.Context(), buildDocContext(chunks, false), query)
	answer, err := c.llm.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	c.history.Add([]string{query}, answer)
	return answer, nil
}
