package pdfrag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nmehta6/pdfrag/internal/rag"
)

// Collection is the handle for one registered PDF: the vector collection
// derived from its content hash plus document-level provenance.
type Collection struct {
	Name      string // pdf_<hash>
	Filename  string
	Path      string
	PageCount int
	Chunks    int
}

// IngestConfig holds all configuration for the ingestion pipeline.
type IngestConfig struct {
	// Storage settings
	VectorDBType    string // "chromem", "milvus", "memory"
	VectorDBAddress string

	// Processing settings
	MaxWords       int
	Overlap        int
	MaxConcurrency int
	Timeout        time.Duration
	TempDir        string
	DefaultDir     string // fallback when source has no PDFs

	// Embedding settings
	EmbeddingProvider string
	EmbeddingModel    string
	EmbeddingKey      string
	RequestsPerMinute int

	// Injected components. When set they override the settings above;
	// tests use these to run the pipeline without external services.
	DB       VectorDB
	Embedder Embedder
	Parser   Parser     // document parser, PDFParser() when nil
	Sparse   *BM25Index // populated alongside the vector store when set

	// Callbacks
	OnProgress func(processed, total int)
	OnError    func(error)
}

func defaultIngestConfig() *IngestConfig {
	return &IngestConfig{
		VectorDBType:      "chromem",
		MaxWords:          500,
		Overlap:           100,
		MaxConcurrency:    4,
		Timeout:           5 * time.Minute,
		TempDir:           os.TempDir(),
		EmbeddingProvider: "openai",
		EmbeddingModel:    "text-embedding-3-small",
		EmbeddingKey:      os.Getenv("OPENAI_API_KEY"),
		OnProgress: func(processed, total int) {
			Info("Ingest progress", "processed", processed, "total", total)
		},
		OnError: func(err error) {
			Error("Ingest error", "error", err)
		},
	}
}

// IngestOption is a function that modifies IngestConfig.
type IngestOption func(*IngestConfig)

// WithVectorDB routes ingestion to the named backend at the given address.
func WithVectorDB(dbType, address string) IngestOption {
	return func(c *IngestConfig) {
		c.VectorDBType = dbType
		c.VectorDBAddress = address
	}
}

// WithChunking overrides the chunk window and overlap, in words.
func WithChunking(maxWords, overlap int) IngestOption {
	return func(c *IngestConfig) {
		c.MaxWords = maxWords
		c.Overlap = overlap
	}
}

// WithConcurrency bounds the number of files processed in parallel.
func WithConcurrency(n int) IngestOption {
	return func(c *IngestConfig) {
		c.MaxConcurrency = n
	}
}

// WithEmbedding configures the embedding provider.
func WithEmbedding(provider, model, apiKey string) IngestOption {
	return func(c *IngestConfig) {
		c.EmbeddingProvider = provider
		c.EmbeddingModel = model
		c.EmbeddingKey = apiKey
	}
}

// WithEmbeddingRateLimit caps embedding calls at rpm requests per minute.
func WithEmbeddingRateLimit(rpm int) IngestOption {
	return func(c *IngestConfig) {
		c.RequestsPerMinute = rpm
	}
}

// WithDefaultDir sets the fallback directory scanned when the requested
// source yields no PDFs.
func WithDefaultDir(dir string) IngestOption {
	return func(c *IngestConfig) {
		c.DefaultDir = dir
	}
}

// WithStore injects an existing vector store. The store is not closed by
// Ingest.
func WithStore(db VectorDB) IngestOption {
	return func(c *IngestConfig) {
		c.DB = db
	}
}

// WithEmbedder injects an existing embedder.
func WithEmbedder(e Embedder) IngestOption {
	return func(c *IngestConfig) {
		c.Embedder = e
	}
}

// WithDocumentParser injects the parser used to extract document text.
func WithDocumentParser(p Parser) IngestOption {
	return func(c *IngestConfig) {
		c.Parser = p
	}
}

// WithSparseIndex also indexes chunk text into the given BM25 index for
// hybrid retrieval.
func WithSparseIndex(idx *BM25Index) IngestOption {
	return func(c *IngestConfig) {
		c.Sparse = idx
	}
}

// WithIngestCallbacks overrides the progress and error callbacks.
func WithIngestCallbacks(onProgress func(processed, total int), onError func(error)) IngestOption {
	return func(c *IngestConfig) {
		if onProgress != nil {
			c.OnProgress = onProgress
		}
		if onError != nil {
			c.OnError = onError
		}
	}
}

// Ingest registers PDFs from source into per-document vector collections.
// Source may be a file, a directory, or an http(s) URL. A document whose
// collection already exists with content is skipped; its existing handle is
// returned. Files that fail to process are logged and skipped.
func Ingest(ctx context.Context, source string, opts ...IngestOption) ([]Collection, error) {
	cfg := defaultIngestConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	files, err := resolveSource(ctx, source, cfg)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no PDF files found in %s", source)
	}

	svc, err := buildEmbeddingService(cfg)
	if err != nil {
		return nil, err
	}

	db := cfg.DB
	if db == nil {
		db, err = NewVectorDB(
			SetVectorDBType(cfg.VectorDBType),
			SetVectorDBAddress(cfg.VectorDBAddress),
			SetVectorDBTimeout(cfg.Timeout),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create vector store: %w", err)
		}
		defer db.Close()
	}
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to vector store: %w", err)
	}

	chunker, err := NewChunker(MaxWords(cfg.MaxWords), Overlap(cfg.Overlap))
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}

	type result struct {
		collection Collection
		err        error
	}

	concurrency := cfg.MaxConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	sem := make(chan struct{}, concurrency)
	results := make([]result, len(files))
	var wg sync.WaitGroup
	var processed int
	var mu sync.Mutex

	for i, file := range files {
		wg.Add(1)
		go func(i int, file string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			coll, err := ingestFile(ctx, file, db, svc, chunker, cfg)
			results[i] = result{collection: coll, err: err}

			mu.Lock()
			processed++
			cfg.OnProgress(processed, len(files))
			mu.Unlock()
		}(i, file)
	}
	wg.Wait()

	collections := make([]Collection, 0, len(files))
	for _, r := range results {
		if r.err != nil {
			cfg.OnError(r.err)
			continue
		}
		collections = append(collections, r.collection)
	}
	if len(collections) == 0 {
		return nil, fmt.Errorf("all %d files failed to ingest", len(files))
	}
	return collections, nil
}

func resolveSource(ctx context.Context, source string, cfg *IngestConfig) ([]string, error) {
	loader := rag.NewLoader(
		rag.WithTempDir(cfg.TempDir),
		rag.WithTimeout(cfg.Timeout),
	)

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		path, err := loader.LoadURL(ctx, source)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	info, err := os.Stat(source)
	if err == nil && info.IsDir() {
		files, err := loader.LoadDir(ctx, source)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 && cfg.DefaultDir != "" && cfg.DefaultDir != source {
			Warn("No PDFs in source directory, falling back", "source", source, "fallback", cfg.DefaultDir)
			return loader.LoadDir(ctx, cfg.DefaultDir)
		}
		return files, nil
	}
	if err != nil {
		if cfg.DefaultDir != "" {
			Warn("Source not accessible, falling back", "source", source, "fallback", cfg.DefaultDir)
			return loader.LoadDir(ctx, cfg.DefaultDir)
		}
		return nil, fmt.Errorf("cannot access source %s: %w", source, err)
	}

	path, err := loader.LoadFile(ctx, source)
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// pageCountOf reads a document's page count, through the injected parser
// when one is configured.
func pageCountOf(path string, parser Parser) (int, error) {
	if parser == nil {
		return rag.PageCount(path)
	}
	doc, err := parser.Parse(path)
	if err != nil {
		return 0, err
	}
	return len(doc.Pages), nil
}

func buildEmbeddingService(cfg *IngestConfig) (*EmbeddingService, error) {
	embedder := cfg.Embedder
	if embedder == nil {
		var err error
		embedder, err = NewEmbedder(
			SetEmbedderProvider(cfg.EmbeddingProvider),
			SetEmbedderModel(cfg.EmbeddingModel),
			SetEmbedderAPIKey(cfg.EmbeddingKey),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
	}

	var svcOpts []EmbeddingServiceOption
	if cfg.RequestsPerMinute > 0 {
		svcOpts = append(svcOpts, WithRequestsPerMinute(cfg.RequestsPerMinute))
	}
	return NewEmbeddingService(embedder, svcOpts...), nil
}

// ingestFile registers a single PDF. The collection name is derived from the
// md5 of the file content, so re-ingesting the same bytes is a no-op.
func ingestFile(ctx context.Context, path string, db VectorDB, svc *EmbeddingService, chunker Chunker, cfg *IngestConfig) (Collection, error) {
	hash, err := rag.FileHash(path)
	if err != nil {
		return Collection{}, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	collName := rag.CollectionName(hash)
	filename := filepath.Base(path)

	exists, err := db.HasCollection(ctx, collName)
	if err != nil {
		return Collection{}, fmt.Errorf("failed to check collection %s: %w", collName, err)
	}
	if exists {
		count, err := db.Count(ctx, collName)
		if err != nil {
			return Collection{}, fmt.Errorf("failed to count collection %s: %w", collName, err)
		}
		if count > 0 {
			pages, err := pageCountOf(path, cfg.Parser)
			if err != nil {
				return Collection{}, fmt.Errorf("failed to read page count of %s: %w", path, err)
			}
			Info("Document already registered", "file", filename, "collection", collName, "chunks", count)
			return Collection{
				Name:      collName,
				Filename:  filename,
				Path:      path,
				PageCount: pages,
				Chunks:    count,
			}, nil
		}
	}

	parser := cfg.Parser
	if parser == nil {
		parser = PDFParser()
	}
	doc, err := parser.Parse(path)
	if err != nil {
		return Collection{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	pageCount := len(doc.Pages)

	chunks := chunker.ChunkPages(doc.Pages)
	if len(chunks) == 0 {
		return Collection{}, fmt.Errorf("no text extracted from %s", path)
	}

	embedded, err := svc.EmbedChunks(ctx, hash, filename, pageCount, chunks)
	if err != nil {
		return Collection{}, fmt.Errorf("failed to embed %s: %w", filename, err)
	}

	if !exists {
		if err := db.CreateCollection(ctx, collName, len(embedded[0].Embedding)); err != nil {
			return Collection{}, fmt.Errorf("failed to create collection %s: %w", collName, err)
		}
	}

	records := make([]Record, len(embedded))
	for i, e := range embedded {
		records[i] = Record{
			ID:        e.ID,
			Text:      e.Text,
			Embedding: e.Embedding,
			Metadata:  e.Metadata,
		}
	}
	if err := db.Insert(ctx, collName, records); err != nil {
		return Collection{}, fmt.Errorf("failed to store %s: %w", filename, err)
	}
	if err := db.Flush(ctx, collName); err != nil {
		return Collection{}, fmt.Errorf("failed to flush %s: %w", collName, err)
	}

	if cfg.Sparse != nil {
		for _, e := range embedded {
			meta := make(map[string]string, len(e.Metadata)+1)
			for k, v := range e.Metadata {
				meta[k] = v
			}
			meta["collection"] = collName
			if err := cfg.Sparse.Add(ctx, e.ID, e.Text, meta); err != nil {
				return Collection{}, fmt.Errorf("failed to index %s: %w", e.ID, err)
			}
		}
	}

	Info("Registered document", "file", filename, "collection", collName, "pages", pageCount, "chunks", len(chunks))
	return Collection{
		Name:      collName,
		Filename:  filename,
		Path:      path,
		PageCount: pageCount,
		Chunks:    len(chunks),
	}, nil
}
