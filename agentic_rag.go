package pdfrag

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// AgenticResult is the outcome of an agentic query: the reasoning steps the
// agent recorded and the structured response it produced.
type AgenticResult struct {
	Reasoning []string
	Response  *StructuredResponse
}

// AgenticRAG inspects each query before retrieving: compound questions are
// split into sub-queries that are retrieved independently, and the agent's
// decisions are reported alongside the structured answer.
type AgenticRAG struct {
	retriever   *Retriever
	collections []Collection
	llm         Generator
	history     *History
	synthesize  bool
	topK        int
	summaryLen  int
}

// AgenticRAGConfig holds configuration for AgenticRAG.
type AgenticRAGConfig struct {
	Collections []Collection
	TopK        int
	MinScore    float64
	Synthesize  bool // true asks the LLM for JSON; false structures directly
	HistorySize int

	LLMModel  string
	APIKey    string
	Generator Generator

	SummaryLength int

	RetrieverOptions []RetrieverOption
}

var subQuerySplit = regexp.MustCompile(`[.;]\s*and\s*|[.;]\s*`)

// NewAgenticRAG creates an AgenticRAG over the given collections.
func NewAgenticRAG(config AgenticRAGConfig) (*AgenticRAG, error) {
	if config.TopK <= 0 {
		config.TopK = 3
	}
	if config.SummaryLength <= 0 {
		config.SummaryLength = 200
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

	return &AgenticRAG{
		retriever:   retriever,
		collections: config.Collections,
		llm:         llm,
		history:     NewHistory(config.HistorySize),
		synthesize:  config.Synthesize,
		topK:        config.TopK,
		summaryLen:  config.SummaryLength,
	}, nil
}

// History exposes the conversation history.
func (a *AgenticRAG) History() *History {
	return a.history
}

// Close releases the underlying retriever.
func (a *AgenticRAG) Close() error {
	return a.retriever.Close()
}

// AnalyzeQuery decides whether the query is compound and, when it is,
// splits it into sub-queries. A query is compound when it joins clauses
// with "and" or spans more than one sentence.
func AnalyzeQuery(query string) (bool, []string) {
	terminators := strings.Count(query, ".") + strings.Count(query, ";")
	if !strings.Contains(strings.ToLower(query), " and ") && terminators <= 1 {
		return false, []string{query}
	}

	parts := subQuerySplit.Split(query, -1)
	subQueries := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			subQueries = append(subQueries, p)
		}
	}
	if len(subQueries) == 0 {
		return false, []string{query}
	}
	return true, subQueries
}

// Query analyzes the question, retrieves per sub-query, deduplicates and
// re-ranks the union, and returns the structured response together with the
// reasoning steps taken.
func (a *AgenticRAG) Query(ctx context.Context, query string) (*AgenticResult, error) {
	if len(a.collections) == 0 {
		return nil, fmt.Errorf("no document collections available to query")
	}
	if query == "" {
		return nil, fmt.Errorf("no query provided")
	}

	names := collectionNames(a.collections)
	reasoning := []string{"Agent Reasoning: Initial query analysis completed."}

	isComplex, subQueries := AnalyzeQuery(query)
	if isComplex {
		reasoning = append(reasoning, fmt.Sprintf("Query split into %d sub-queries: %v", len(subQueries), subQueries))
	}

	var all []ScoredChunk
	for _, sub := range subQueries {
		chunks, err := a.retriever.Retrieve(ctx, sub, names)
		if err != nil {
			return nil, err
		}
		if len(chunks) == 0 {
			reasoning = append(reasoning, fmt.Sprintf("No results for query: %s", sub))
			continue
		}
		reasoning = append(reasoning, fmt.Sprintf("Retrieved %d chunks for query: %s", len(chunks), sub))
		all = append(all, chunks...)
	}
	if len(all) == 0 {
		return &AgenticResult{Reasoning: append(reasoning, "No relevant documents found.")}, nil
	}

	seen := make(map[string]bool)
	unique := make([]ScoredChunk, 0, len(all))
	for _, chunk := range all {
		if seen[chunk.ChunkID] {
			continue
		}
		seen[chunk.ChunkID] = true
		unique = append(unique, chunk)
	}
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Similarity > unique[j].Similarity
	})
	if len(unique) > a.topK {
		unique = unique[:a.topK]
	}

	structured := StructuredOutputRAG{
		history:    a.history,
		llm:        a.llm,
		summaryLen: a.summaryLen,
	}

	if !a.synthesize {
		resp := structured.structureDirect(query, unique)
		if encoded, err := json.Marshal(resp); err == nil {
			a.history.Add([]string{query}, string(encoded))
		}
		return &AgenticResult{Reasoning: reasoning, Response: resp}, nil
	}

	resp, raw, err := structured.structureWithLLM(ctx, query, unique)
	if err != nil {
		return &AgenticResult{Reasoning: reasoning}, err
	}
	a.history.Add([]string{query}, raw)
	return &AgenticResult{Reasoning: reasoning, Response: resp}, nil
}
