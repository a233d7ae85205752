package pdfrag

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/teilomillet/gollm"
)

// Generator produces an answer for a fully rendered prompt. The RAG variants
// depend on this narrow interface rather than on a concrete LLM client, so
// tests can substitute a fake.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// gollmGenerator adapts a gollm.LLM to the Generator interface.
type gollmGenerator struct {
	llm gollm.LLM
}

func (g *gollmGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.llm.Generate(ctx, gollm.NewPrompt(prompt))
	if err != nil {
		return "", fmt.Errorf("llm generation failed: %w", err)
	}
	return resp, nil
}

// WrapLLM exposes an existing gollm.LLM as a Generator.
func WrapLLM(llm gollm.LLM) Generator {
	return &gollmGenerator{llm: llm}
}

// NewOpenAIGenerator builds a Generator over the OpenAI chat API. The API key
// falls back to OPENAI_API_KEY when empty.
func NewOpenAIGenerator(model, apiKey string) (Generator, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	llm, err := gollm.NewLLM(
		gollm.SetProvider("openai"),
		gollm.SetModel(model),
		gollm.SetAPIKey(apiKey),
		gollm.SetMaxTokens(1024),
		gollm.SetMaxRetries(3),
		gollm.SetRetryDelay(time.Second*2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	return WrapLLM(llm), nil
}
