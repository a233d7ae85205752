package pdfrag

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// StructuredAnswer is the answer portion of a structured response.
type StructuredAnswer struct {
	Summary string `json:"summary"`
	Details string `json:"details"`
	Pages   []int  `json:"pages"`
	Source  string `json:"source"`
}

// StructuredResponse is the machine-readable result of a structured query.
type StructuredResponse struct {
	Question string           `json:"question"`
	Answer   StructuredAnswer `json:"answer"`
}

// StructuredOutputRAG answers questions with JSON instead of prose. Direct
// mode assembles the response from the retrieved chunks; LLM mode asks the
// model for JSON, extracts it, and validates it.
type StructuredOutputRAG struct {
	retriever   *Retriever
	collections []Collection
	llm         Generator
	history     *History
	synthesize  bool
	summaryLen  int
}

// StructuredOutputRAGConfig holds configuration for StructuredOutputRAG.
type StructuredOutputRAGConfig struct {
	Collections []Collection
	TopK        int
	MinScore    float64
	Synthesize  bool // true asks the LLM for JSON; false structures directly
	HistorySize int

	LLMModel  string
	APIKey    string
	Generator Generator

	// SummaryLength caps the direct-mode summary, in bytes (default 200).
	SummaryLength int

	RetrieverOptions []RetrieverOption
}

// jsonBlock matches the outermost braced block in an LLM reply, tolerating
// prose around it.
var jsonBlock = regexp.MustCompile(`(?s)\{.*\}`)

// NewStructuredOutputRAG creates a StructuredOutputRAG over the given
// collections.
func NewStructuredOutputRAG(config StructuredOutputRAGConfig) (*StructuredOutputRAG, error) {
	if config.TopK <= 0 {
		config.TopK = 5
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

	return &StructuredOutputRAG{
		retriever:   retriever,
		collections: config.Collections,
		llm:         llm,
		history:     NewHistory(config.HistorySize),
		synthesize:  config.Synthesize,
		summaryLen:  config.SummaryLength,
	}, nil
}

// History exposes the conversation history.
func (s *StructuredOutputRAG) History() *History {
	return s.history
}

// Close releases the underlying retriever.
func (s *StructuredOutputRAG) Close() error {
	return s.retriever.Close()
}

// Query answers the question as a StructuredResponse.
func (s *StructuredOutputRAG) Query(ctx context.Context, query string) (*StructuredResponse, error) {
	if len(s.collections) == 0 {
		return nil, fmt.Errorf("no document collections available to query")
	}
	if query == "" {
		return nil, fmt.Errorf("no query provided")
	}

	chunks, err := s.retriever.Retrieve(ctx, query, collectionNames(s.collections))
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no relevant documents found for the query")
	}

	if !s.synthesize {
		resp := s.structureDirect(query, chunks)
		if encoded, err := json.Marshal(resp); err == nil {
			s.history.Add([]string{query}, string(encoded))
		}
		return resp, nil
	}

	resp, raw, err := s.structureWithLLM(ctx, query, chunks)
	if err != nil {
		return nil, err
	}
	s.history.Add([]string{query}, raw)
	return resp, nil
}

// structureDirect builds the response from the best chunk: its leading text
// as summary, all formatted chunks as details, the deduplicated union of
// page numbers, and the best chunk's file as source.
func (s *StructuredOutputRAG) structureDirect(query string, chunks []ScoredChunk) *StructuredResponse {
	best := chunks[0]
	for _, chunk := range chunks[1:] {
		if chunk.Similarity > best.Similarity {
			best = chunk
		}
	}

	summary := best.Content
	if len(summary) > s.summaryLen {
		cut := s.summaryLen
		for cut > 0 && !utf8.RuneStart(summary[cut]) {
			cut--
		}
		summary = summary[:cut] + "..."
	}

	pageSet := make(map[int]bool)
	for _, chunk := range chunks {
		for _, p := range chunk.Pages {
			pageSet[p] = true
		}
	}
	pages := make([]int, 0, len(pageSet))
	for p := range pageSet {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	return &StructuredResponse{
		Question: query,
		Answer: StructuredAnswer{
			Summary: summary,
			Details: formatChunksRaw(chunks, true),
			Pages:   pages,
			Source:  best.Filename,
		},
	}
}

// structureWithLLM prompts for JSON, extracts the outermost braced block,
// and decodes it. An unparseable reply is an error carrying the raw text.
func (s *StructuredOutputRAG) structureWithLLM(ctx context.Context, query string, chunks []ScoredChunk) (*StructuredResponse, string, error) {
	var sb strings.Builder
	if h := s.history.Context(); h != "" {
		sb.WriteString("Conversation History:\n")
		sb.WriteString(h)
		sb.WriteString("\n")
	}
	sb.WriteString("Retrieved Context:\n")
	sb.WriteString(buildDocContext(chunks, true))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Current Question: %s\n", query)
	sb.WriteString(`Provide a structured JSON response with the following format:
{
  "question": "<the original question>",
  "answer": {
    "summary": "<a concise answer based on the context>",
    "details": "<detailed explanation or list of points>",
    "pages": [<list of relevant page numbers>],
    "source": "<filename of the PDF>"
  }
}
Ensure the response is valid JSON and references the retrieved context accurately. Note that some PDFs may contain images (e.g., graphs) not included in the context:
`)

	reply, err := s.llm.Generate(ctx, sb.String())
	if err != nil {
		return nil, "", err
	}

	raw := strings.TrimSpace(reply)
	if match := jsonBlock.FindString(raw); match != "" {
		raw = strings.TrimSpace(match)
	}

	var resp StructuredResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, "", fmt.Errorf("invalid JSON response from LLM: %w (response: %s)", err, raw)
	}
	return &resp, raw, nil
}
