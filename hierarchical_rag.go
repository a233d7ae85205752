package pdfrag

import (
	"context"
	"fmt"
	"sort"
)

// HierarchicalRAG retrieves in two stages: a coarse stage picks the most
// promising documents by page count, then a fine stage retrieves chunks
// only within the survivors. Useful when many PDFs are registered and
// searching all of them per query is wasteful.
type HierarchicalRAG struct {
	retriever   *Retriever
	collections []Collection
	llm         Generator
	history     *History
	synthesize  bool
	coarseK     int
	fineK       int
	budget      int
	counter     TokenCounter
}

// HierarchicalRAGConfig holds configuration for HierarchicalRAG.
type HierarchicalRAGConfig struct {
	Collections []Collection
	CoarseK     int // documents kept by the coarse stage
	FineK       int // chunks retrieved per surviving document
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

// NewHierarchicalRAG creates a HierarchicalRAG over the given collections.
func NewHierarchicalRAG(config HierarchicalRAGConfig) (*HierarchicalRAG, error) {
	if config.CoarseK <= 0 {
		config.CoarseK = 2
	}
	if config.FineK <= 0 {
		config.FineK = 3
	}

	opts := append([]RetrieverOption{
		WithTopK(config.FineK),
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

	return &HierarchicalRAG{
		retriever:   retriever,
		collections: config.Collections,
		llm:         llm,
		history:     NewHistory(config.HistorySize),
		synthesize:  config.Synthesize,
		coarseK:     config.CoarseK,
		fineK:       config.FineK,
		budget:      config.ContextBudget,
		counter:     config.TokenCounter,
	}, nil
}

// History exposes the conversation history.
func (h *HierarchicalRAG) History() *History {
	return h.history
}

// Close releases the underlying retriever.
func (h *HierarchicalRAG) Close() error {
	return h.retriever.Close()
}

// coarseSelect ranks documents by page count descending and keeps the top
// CoarseK.
func (h *HierarchicalRAG) coarseSelect() []Collection {
	selected := make([]Collection, len(h.collections))
	copy(selected, h.collections)
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].PageCount > selected[j].PageCount
	})
	if len(selected) > h.coarseK {
		selected = selected[:h.coarseK]
	}
	return selected
}

// Query runs coarse document selection followed by fine chunk retrieval
// within the selected documents, deduplicating chunks across them.
func (h *HierarchicalRAG) Query(ctx context.Context, query string) (string, error) {
	if len(h.collections) == 0 {
		return "", fmt.Errorf("no document collections available to query")
	}
	if query == "" {
		return "", fmt.Errorf("no query provided")
	}

	coarse := h.coarseSelect()
	for _, c := range coarse {
		Debug("Coarse selection", "file", c.Filename, "pages", c.PageCount)
	}

	seen := make(map[string]bool)
	var chunks []ScoredChunk
	for _, coll := range coarse {
		fine, err := h.retriever.Retrieve(ctx, query, []string{coll.Name})
		if err != nil {
			return "", err
		}
		for _, chunk := range fine {
			if seen[chunk.ChunkID] {
				continue
			}
			seen[chunk.ChunkID] = true
			chunks = append(chunks, chunk)
		}
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("no relevant documents found for the query")
	}

	if !h.synthesize {
		raw := formatChunksRaw(chunks, true)
		h.history.Add([]string{query}, raw)
		return raw, nil
	}

	chunks = trimToBudget(chunks, h.budget, h.counter, true)
	prompt := answerPrompt(h.history.Context(), buildDocContext(chunks, true), query)
	answer, err := h.llm.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	h.history.Add([]string{query}, answer)
	return answer, nil
}
