// Package providers implements the embedding providers available to the
// pdfrag pipeline. Providers convert text into vectors capturing semantic
// meaning; a registry keyed by name lets new providers be added without
// touching the pipeline itself.
package providers

import (
	"context"
	"fmt"
	"sync"
)

// Embedder converts text into its vector representation.
type Embedder interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension reports the size of the vectors this embedder produces.
	Dimension() int
}

// EmbedderFactory builds an Embedder from provider-specific options.
type EmbedderFactory func(config map[string]interface{}) (Embedder, error)

var (
	mu                sync.RWMutex
	embedderFactories = make(map[string]EmbedderFactory)
)

// RegisterEmbedder adds a factory under the given provider name,
// replacing any existing registration.
func RegisterEmbedder(name string, factory EmbedderFactory) {
	mu.Lock()
	defer mu.Unlock()
	embedderFactories[name] = factory
}

// GetEmbedderFactory looks up the factory registered under name.
func GetEmbedderFactory(name string) (EmbedderFactory, error) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := embedderFactories[name]
	if !ok {
		return nil, fmt.Errorf("embedder not found: %s", name)
	}
	return factory, nil
}

// List returns the names of all registered providers.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(embedderFactories))
	for name := range embedderFactories {
		names = append(names, name)
	}
	return names
}
