package pdfrag

import (
	"context"
	"fmt"
)

// MultiDocumentRAG answers a question across all registered PDFs at once.
// Results identify the source file alongside page numbers, so the answer
// can say which document each fact came from.
type MultiDocumentRAG struct {
	retriever   *Retriever
	collections []Collection
	llm         Generator
	history     *History
	synthesize  bool
	budget      int
	counter     TokenCounter
}

// MultiDocumentRAGConfig holds configuration for MultiDocumentRAG.
type MultiDocumentRAGConfig struct {
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

// NewMultiDocumentRAG creates a MultiDocumentRAG over the given collections.
func NewMultiDocumentRAG(config MultiDocumentRAGConfig) (*MultiDocumentRAG, error) {
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

	return &MultiDocumentRAG{
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
func (m *MultiDocumentRAG) History() *History {
	return m.history
}

// Close releases the underlying retriever.
func (m *MultiDocumentRAG) Close() error {
	return m.retriever.Close()
}

// Query searches every registered document and answers with file and page
// references.
func (m *MultiDocumentRAG) Query(ctx context.Context, query string) (string, error) {
	if len(m.collections) == 0 {
		return "", fmt.Errorf("no document collections available to query")
	}
	if query == "" {
		return "", fmt.Errorf("no query provided")
	}

	chunks, err := m.retriever.Retrieve(ctx, query, collectionNames(m.collections))
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("no relevant documents found for the query")
	}

	if !m.synthesize {
		raw := formatChunksRaw(chunks, true)
		m.history.Add([]string{query}, raw)
		return raw, nil
	}

	chunks = trimToBudget(chunks, m.budget, m.counter, true)
	prompt := answerPrompt(m.history.Context(), buildDocContext(chunks, true), query)
	answer, err := m.llm.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	m.history.Add([]string{query}, answer)
	return answer, nil
}
