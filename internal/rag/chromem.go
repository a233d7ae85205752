package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// ChromemDB is the default VectorDB backend, an embedded vector store that
// runs in-process and optionally persists to disk. Embeddings are computed
// upstream by the pipeline, so the store's own embedding hook is never
// exercised.
type ChromemDB struct {
	db          *chromem.DB
	mu          sync.RWMutex
	collections map[string]*chromem.Collection
}

// noEmbedding satisfies chromem's embedding hook. All documents and queries
// arrive with precomputed vectors.
func noEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("embeddings are computed by the pipeline, not the store")
}

func newChromemDB(cfg *Config) (*ChromemDB, error) {
	var db *chromem.DB
	var err error

	if cfg.Address != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Address), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for chromem store: %w", err)
		}
		db, err = chromem.NewPersistentDB(cfg.Address, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open persistent chromem store: %w", err)
		}
		GlobalLogger.Debug("Opened persistent chromem store", "path", cfg.Address)
	} else {
		db = chromem.NewDB()
		GlobalLogger.Debug("Created in-memory chromem store")
	}

	c := &ChromemDB{
		db:          db,
		collections: make(map[string]*chromem.Collection),
	}
	for name, col := range db.ListCollections() {
		c.collections[name] = col
	}
	return c, nil
}

func (c *ChromemDB) Connect(ctx context.Context) error { return nil }

func (c *ChromemDB) Close() error { return nil }

func (c *ChromemDB) HasCollection(ctx context.Context, name string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.collections[name]; ok {
		return true, nil
	}
	col := c.db.GetCollection(name, noEmbedding)
	return col != nil, nil
}

func (c *ChromemDB) CreateCollection(ctx context.Context, name string, dimension int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	col, err := c.db.CreateCollection(name, map[string]string{}, noEmbedding)
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	c.collections[name] = col
	return nil
}

func (c *ChromemDB) DropCollection(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}
	delete(c.collections, name)
	return nil
}

func (c *ChromemDB) Count(ctx context.Context, name string) (int, error) {
	col, err := c.collection(name)
	if err != nil {
		return 0, err
	}
	return col.Count(), nil
}

func (c *ChromemDB) Insert(ctx context.Context, name string, records []Record) error {
	col, err := c.collection(name)
	if err != nil {
		return err
	}
	for _, r := range records {
		doc := chromem.Document{
			ID:        r.ID,
			Content:   r.Text,
			Metadata:  r.Metadata,
			Embedding: r.Embedding,
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("failed to insert document %s: %w", r.ID, err)
		}
	}
	GlobalLogger.Debug("Inserted records", "collection", name, "count", len(records))
	return nil
}

func (c *ChromemDB) Flush(ctx context.Context, name string) error { return nil }

// Query returns the topK nearest documents. chromem rejects result counts
// above the collection size, so topK is clamped first.
func (c *ChromemDB) Query(ctx context.Context, name string, embedding []float32, topK int) ([]Hit, error) {
	col, err := c.collection(name)
	if err != nil {
		return nil, err
	}

	n := col.Count()
	if n == 0 {
		return nil, nil
	}
	if topK > n {
		topK = n
	}

	results, err := col.QueryEmbedding(ctx, embedding, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %s: %w", name, err)
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			ID:       r.ID,
			Score:    float64(r.Similarity),
			Text:     r.Content,
			Metadata: r.Metadata,
		}
	}
	return hits, nil
}

func (c *ChromemDB) ListCollections(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	for name := range c.db.ListCollections() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (c *ChromemDB) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.db.Reset(); err != nil {
		return fmt.Errorf("failed to reset chromem store: %w", err)
	}
	c.collections = make(map[string]*chromem.Collection)
	return nil
}

func (c *ChromemDB) collection(name string) (*chromem.Collection, error) {
	c.mu.RLock()
	col, ok := c.collections[name]
	c.mu.RUnlock()
	if ok {
		return col, nil
	}

	col = c.db.GetCollection(name, noEmbedding)
	if col == nil {
		return nil, fmt.Errorf("collection %s does not exist", name)
	}
	c.mu.Lock()
	c.collections[name] = col
	c.mu.Unlock()
	return col, nil
}
