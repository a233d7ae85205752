package pdfrag

import (
	"context"
	"fmt"
	"strings"
)

// MultiQueryRAG answers several questions in one pass: each query is
// retrieved independently, chunks already seen for an earlier query are
// dropped, and the combined context feeds a single synthesized answer.
type MultiQueryRAG struct {
	retriever   *Retriever
	collections []Collection
	llm         Generator
	history     *History
	synthesize  bool
	counter     TokenCounter
	budget      int
}

// MultiQueryRAGConfig holds configuration for MultiQueryRAG.
type MultiQueryRAGConfig struct {
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

// NewMultiQueryRAG creates a MultiQueryRAG over the given collections.
func NewMultiQueryRAG(config MultiQueryRAGConfig) (*MultiQueryRAG, error) {
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

	return &MultiQueryRAG{
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
func (m *MultiQueryRAG) History() *History {
	return m.history
}

// Close releases the underlying retriever.
func (m *MultiQueryRAG) Close() error {
	return m.retriever.Close()
}

// Query retrieves chunks for every query, deduplicates across queries, and
// answers all questions together. The whole batch is recorded as one
// history turn.
func (m *MultiQueryRAG) Query(ctx context.Context, queries []string) (string, error) {
	if len(m.collections) == 0 {
		return "", fmt.Errorf("no document collections available to query")
	}
	if len(queries) == 0 {
		return "", fmt.Errorf("at least one query is required")
	}

	names := collectionNames(m.collections)
	seen := make(map[string]bool)
	var rawResponse strings.Builder
	var docContext strings.Builder
	found := 0

	for _, query := range queries {
		chunks, err := m.retriever.Retrieve(ctx, query, names)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&rawResponse, "\nQuery: %s\n", query)
		if len(chunks) == 0 {
			rawResponse.WriteString("No relevant documents found.\n")
			continue
		}
		for _, chunk := range chunks {
			if seen[chunk.ChunkID] {
				continue
			}
			seen[chunk.ChunkID] = true
			found++
			ref := pageRef(chunk.Pages)
			fmt.Fprintf(&rawResponse, "Chunk %s (Similarity: %.3f, %s):\n%s\n",
				chunk.ChunkID, chunk.Similarity, ref, chunk.Content)
			if m.counter != nil && m.budget > 0 && m.counter.Count(docContext.String()) >= m.budget {
				continue
			}
			fmt.Fprintf(&docContext, "Query: %s\nDocument %s (%s): %s\n\n",
				query, chunk.ChunkID, ref, chunk.Content)
		}
	}

	if found == 0 || !m.synthesize {
		raw := rawResponse.String()
		m.history.Add(queries, raw)
		return raw, nil
	}

	var sb strings.Builder
	if h := m.history.Context(); h != "" {
		sb.WriteString("Conversation History:\n")
		sb.WriteString(h)
		sb.WriteString("\n")
	}
	sb.WriteString("Retrieved Context:\n")
	sb.WriteString(docContext.String())
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Current Questions: %s\n", strings.Join(queries, ", "))
	sb.WriteString("Provide a detailed, cohesive answer addressing all questions based on the retrieved context and conversation history, referencing relevant page numbers if applicable:\n")

	answer, err := m.llm.Generate(ctx, sb.String())
	if err != nil {
		return "", err
	}
	m.history.Add(queries, answer)
	return answer, nil
}
