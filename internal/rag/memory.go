package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryDB is an in-process VectorDB backed by linear scans. It exists for
// tests and prototyping; nothing persists.
type MemoryDB struct {
	mu          sync.RWMutex
	collections map[string][]Record
	dimensions  map[string]int
}

func newMemoryDB(cfg *Config) (*MemoryDB, error) {
	return &MemoryDB{
		collections: make(map[string][]Record),
		dimensions:  make(map[string]int),
	}, nil
}

func (m *MemoryDB) Connect(ctx context.Context) error { return nil }

func (m *MemoryDB) Close() error { return nil }

func (m *MemoryDB) HasCollection(ctx context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.collections[name]
	return exists, nil
}

func (m *MemoryDB) CreateCollection(ctx context.Context, name string, dimension int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.collections[name]; exists {
		return fmt.Errorf("collection %s already exists", name)
	}
	m.collections[name] = nil
	m.dimensions[name] = dimension
	return nil
}

func (m *MemoryDB) DropCollection(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, name)
	delete(m.dimensions, name)
	return nil
}

func (m *MemoryDB) Count(ctx context.Context, name string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records, exists := m.collections[name]
	if !exists {
		return 0, fmt.Errorf("collection %s does not exist", name)
	}
	return len(records), nil
}

func (m *MemoryDB) Insert(ctx context.Context, name string, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, exists := m.collections[name]
	if !exists {
		return fmt.Errorf("collection %s does not exist", name)
	}
	if dim := m.dimensions[name]; dim > 0 {
		for _, r := range records {
			if len(r.Embedding) != dim {
				return fmt.Errorf("record %s has dimension %d, collection %s expects %d",
					r.ID, len(r.Embedding), name, dim)
			}
		}
	}
	m.collections[name] = append(stored, records...)
	return nil
}

func (m *MemoryDB) Flush(ctx context.Context, name string) error { return nil }

// Query scores every record by cosine similarity and returns the topK
// highest scoring, best first.
func (m *MemoryDB) Query(ctx context.Context, name string, embedding []float32, topK int) ([]Hit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records, exists := m.collections[name]
	if !exists {
		return nil, fmt.Errorf("collection %s does not exist", name)
	}

	hits := make([]Hit, 0, len(records))
	for _, r := range records {
		hits = append(hits, Hit{
			ID:       r.ID,
			Score:    cosineSimilarity(embedding, r.Embedding),
			Text:     r.Text,
			Metadata: r.Metadata,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (m *MemoryDB) ListCollections(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryDB) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = make(map[string][]Record)
	m.dimensions = make(map[string]int)
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
