package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	milvusIDField        = "id"
	milvusTextField      = "text"
	milvusMetadataField  = "metadata"
	milvusEmbeddingField = "embedding"

	milvusIDMaxLength   = 256
	milvusTextMaxLength = 65535

	hnswM              = 16
	hnswEfConstruction = 256
	hnswEf             = 64
)

// MilvusDB stores chunks in a remote Milvus instance. Each collection uses a
// fixed schema with a varchar primary key, the chunk text, a JSON-encoded
// metadata blob, and the embedding vector under an HNSW index.
type MilvusDB struct {
	client client.Client
	config *Config

	mu     sync.Mutex
	loaded map[string]bool
}

func newMilvusDB(cfg *Config) (*MilvusDB, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("milvus backend requires an address")
	}
	return &MilvusDB{config: cfg, loaded: make(map[string]bool)}, nil
}

func (m *MilvusDB) Connect(ctx context.Context) error {
	c, err := client.NewClient(ctx, client.Config{
		Address: m.config.Address,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to milvus at %s: %w", m.config.Address, err)
	}
	m.client = c
	GlobalLogger.Debug("Connected to milvus", "address", m.config.Address)
	return nil
}

func (m *MilvusDB) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}

func (m *MilvusDB) HasCollection(ctx context.Context, name string) (bool, error) {
	return m.client.HasCollection(ctx, name)
}

func (m *MilvusDB) CreateCollection(ctx context.Context, name string, dimension int) error {
	schema := entity.NewSchema().WithName(name).WithDescription("pdf chunk collection").
		WithField(entity.NewField().WithName(milvusIDField).WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(milvusIDMaxLength).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName(milvusTextField).WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(milvusTextMaxLength)).
		WithField(entity.NewField().WithName(milvusMetadataField).WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(milvusTextMaxLength)).
		WithField(entity.NewField().WithName(milvusEmbeddingField).WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(dimension)))

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	idx, err := entity.NewIndexHNSW(entity.L2, hnswM, hnswEfConstruction)
	if err != nil {
		return fmt.Errorf("failed to build HNSW index definition: %w", err)
	}
	if err := m.client.CreateIndex(ctx, name, milvusEmbeddingField, idx, false); err != nil {
		return fmt.Errorf("failed to create index on %s: %w", name, err)
	}
	return nil
}

func (m *MilvusDB) DropCollection(ctx context.Context, name string) error {
	if err := m.client.DropCollection(ctx, name); err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", name, err)
	}
	m.mu.Lock()
	delete(m.loaded, name)
	m.mu.Unlock()
	return nil
}

func (m *MilvusDB) Count(ctx context.Context, name string) (int, error) {
	stats, err := m.client.GetCollectionStatistics(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to get statistics for %s: %w", name, err)
	}
	n, err := strconv.Atoi(stats["row_count"])
	if err != nil {
		return 0, fmt.Errorf("invalid row_count for %s: %w", name, err)
	}
	return n, nil
}

func (m *MilvusDB) Insert(ctx context.Context, name string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]string, len(records))
	texts := make([]string, len(records))
	metas := make([]string, len(records))
	vectors := make([][]float32, len(records))
	for i, r := range records {
		ids[i] = r.ID
		texts[i] = r.Text
		vectors[i] = r.Embedding
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for %s: %w", r.ID, err)
		}
		metas[i] = string(meta)
	}

	dim := len(records[0].Embedding)
	_, err := m.client.Insert(ctx, name, "",
		entity.NewColumnVarChar(milvusIDField, ids),
		entity.NewColumnVarChar(milvusTextField, texts),
		entity.NewColumnVarChar(milvusMetadataField, metas),
		entity.NewColumnFloatVector(milvusEmbeddingField, dim, vectors),
	)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", name, err)
	}
	GlobalLogger.Debug("Inserted records", "collection", name, "count", len(records))
	return nil
}

func (m *MilvusDB) Flush(ctx context.Context, name string) error {
	if err := m.client.Flush(ctx, name, false); err != nil {
		return fmt.Errorf("failed to flush %s: %w", name, err)
	}
	return nil
}

// Query searches the collection with L2 distance and converts distances to
// cosine similarity. Embeddings are unit-normalized upstream, so the two
// rankings agree.
func (m *MilvusDB) Query(ctx context.Context, name string, embedding []float32, topK int) ([]Hit, error) {
	if err := m.ensureLoaded(ctx, name); err != nil {
		return nil, err
	}

	sp, err := entity.NewIndexHNSWSearchParam(hnswEf)
	if err != nil {
		return nil, fmt.Errorf("failed to build search param: %w", err)
	}

	results, err := m.client.Search(ctx, name, nil, "",
		[]string{milvusTextField, milvusMetadataField},
		[]entity.Vector{entity.FloatVector(embedding)},
		milvusEmbeddingField, entity.L2, topK, sp)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", name, err)
	}

	var hits []Hit
	for _, rs := range results {
		textCol := rs.Fields.GetColumn(milvusTextField)
		metaCol := rs.Fields.GetColumn(milvusMetadataField)
		for i := 0; i < rs.ResultCount; i++ {
			id, err := rs.IDs.GetAsString(i)
			if err != nil {
				return nil, fmt.Errorf("failed to read result id: %w", err)
			}
			hit := Hit{
				ID:    id,
				Score: SimilarityFromDistance(float64(rs.Scores[i])),
			}
			if textCol != nil {
				if text, err := textCol.GetAsString(i); err == nil {
					hit.Text = text
				}
			}
			if metaCol != nil {
				if meta, err := metaCol.GetAsString(i); err == nil {
					metadata := make(map[string]string)
					if err := json.Unmarshal([]byte(meta), &metadata); err == nil {
						hit.Metadata = metadata
					}
				}
			}
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

func (m *MilvusDB) ListCollections(ctx context.Context) ([]string, error) {
	collections, err := m.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	names := make([]string, 0, len(collections))
	for _, c := range collections {
		names = append(names, c.Name)
	}
	return names, nil
}

func (m *MilvusDB) Reset(ctx context.Context) error {
	names, err := m.ListCollections(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := m.DropCollection(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (m *MilvusDB) ensureLoaded(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded[name] {
		return nil
	}
	if err := m.client.LoadCollection(ctx, name, false); err != nil {
		return fmt.Errorf("failed to load collection %s: %w", name, err)
	}
	m.loaded[name] = true
	return nil
}
