// Command pdfrag registers PDF documents into vector collections and
// answers questions over them using one of the retrieval strategies.
//
// Usage:
//
//	pdfrag -source ./pdfs -query "What is attention?"
//	pdfrag -variant hierarchical -source ./pdfs -query "Summarize each paper"
//	pdfrag -source ./pdfs            # interactive loop on stdin
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	pdfrag "github.com/nmehta6/pdfrag"
	"github.com/nmehta6/pdfrag/config"
)

type queryList []string

func (q *queryList) String() string { return strings.Join(*q, "; ") }

func (q *queryList) Set(v string) error {
	*q = append(*q, v)
	return nil
}

func main() {
	var (
		variant    = flag.String("variant", "simple", "retrieval strategy: simple, conversational, multiquery, multidoc, hierarchical, structured, agentic")
		source     = flag.String("source", "", "PDF file, directory, or URL to register (default: configured PDF directory)")
		topK       = flag.Int("top-k", 0, "number of chunks to retrieve (default: configured value)")
		synthesize = flag.Bool("synthesize", true, "ask the LLM for an answer instead of returning raw chunks")
		hybrid     = flag.Bool("hybrid", false, "fuse vector search with BM25 keyword search")
		reset      = flag.Bool("reset", false, "drop all collections before registering")
		logLevel   = flag.String("log-level", "", "log verbosity: off, error, warn, info, debug")
		queries    queryList
	)
	flag.Var(&queries, "query", "question to ask (repeatable; omit for interactive mode)")
	flag.Parse()

	if err := run(*variant, *source, *topK, *synthesize, *hybrid, *reset, *logLevel, queries); err != nil {
		fmt.Fprintln(os.Stderr, "pdfrag:", err)
		os.Exit(1)
	}
}

func run(variant, source string, topK int, synthesize, hybrid, reset bool, logLevel string, queries []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	var lvl pdfrag.LogLevel
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return err
	}
	pdfrag.SetLogLevel(lvl)

	if topK <= 0 {
		topK = cfg.DefaultTopK
	}
	if source == "" {
		source = cfg.PDFDirectory
	}

	ctx := context.Background()

	db, err := pdfrag.NewVectorDB(
		pdfrag.SetVectorDBType(cfg.VectorDBType),
		pdfrag.SetVectorDBAddress(cfg.VectorDBAddress),
		pdfrag.SetVectorDBTimeout(cfg.Timeout),
	)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Connect(ctx); err != nil {
		return err
	}
	if reset {
		if err := db.Reset(ctx); err != nil {
			return err
		}
		pdfrag.Info("Dropped all collections")
	}

	ingestOpts := []pdfrag.IngestOption{
		pdfrag.WithStore(db),
		pdfrag.WithChunking(cfg.MaxWords, cfg.Overlap),
		pdfrag.WithConcurrency(cfg.MaxConcurrency),
		pdfrag.WithEmbedding(cfg.EmbeddingProvider, cfg.EmbeddingModel, cfg.APIKey(cfg.EmbeddingProvider)),
		pdfrag.WithDefaultDir(cfg.PDFDirectory),
	}
	if cfg.RequestsPerMinute > 0 {
		ingestOpts = append(ingestOpts, pdfrag.WithEmbeddingRateLimit(cfg.RequestsPerMinute))
	}

	var sparse *pdfrag.BM25Index
	if hybrid || cfg.EnableHybrid {
		sparse = pdfrag.NewBM25Index()
		ingestOpts = append(ingestOpts, pdfrag.WithSparseIndex(sparse))
	}

	collections, err := pdfrag.Ingest(ctx, source, ingestOpts...)
	if err != nil {
		return err
	}
	fmt.Printf("Registered %d document(s)\n", len(collections))
	for _, c := range collections {
		fmt.Printf("  %s (%d pages, %d chunks)\n", c.Filename, c.PageCount, c.Chunks)
	}

	retrieverOpts := []pdfrag.RetrieverOption{
		pdfrag.WithRetrieveStore(db),
		pdfrag.WithRetrieveEmbedding(cfg.EmbeddingProvider, cfg.EmbeddingModel, cfg.APIKey(cfg.EmbeddingProvider)),
	}
	if sparse != nil {
		retrieverOpts = append(retrieverOpts, pdfrag.WithHybrid(sparse, cfg.DenseWeight, cfg.SparseWeight))
	}

	ask, err := buildVariant(variant, cfg, collections, topK, synthesize, retrieverOpts)
	if err != nil {
		return err
	}

	if len(queries) > 0 {
		if variant == "multiquery" {
			answer, err := ask(ctx, queries)
			if err != nil {
				return err
			}
			fmt.Println(answer)
			return nil
		}
		for _, q := range queries {
			answer, err := ask(ctx, []string{q})
			if err != nil {
				return err
			}
			fmt.Println(answer)
		}
		return nil
	}

	return interactive(ctx, variant, ask)
}

// askFunc runs one turn of the chosen variant. Multiquery consumes all
// queries at once; the others take a single query.
type askFunc func(ctx context.Context, queries []string) (string, error)

func buildVariant(variant string, cfg *config.Config, collections []pdfrag.Collection, topK int, synthesize bool, retrieverOpts []pdfrag.RetrieverOption) (askFunc, error) {
	model := cfg.LLMModel
	apiKey := cfg.APIKey("openai")

	switch variant {
	case "simple":
		r, err := pdfrag.NewSimpleRAG(pdfrag.SimpleRAGConfig{
			Collections:      collections,
			TopK:             topK,
			MinScore:         cfg.DefaultMinScore,
			Synthesize:       synthesize,
			LLMModel:         model,
			APIKey:           apiKey,
			RetrieverOptions: retrieverOpts,
		})
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, queries []string) (string, error) {
			return r.Query(ctx, queries[0])
		}, nil

	case "conversational":
		r, err := pdfrag.NewConversationalRAG(pdfrag.ConversationalRAGConfig{
			Collections:      collections,
			TopK:             topK,
			MinScore:         cfg.DefaultMinScore,
			Synthesize:       synthesize,
			LLMModel:         model,
			APIKey:           apiKey,
			RetrieverOptions: retrieverOpts,
		})
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, queries []string) (string, error) {
			return r.Query(ctx, queries[0])
		}, nil

	case "multiquery":
		r, err := pdfrag.NewMultiQueryRAG(pdfrag.MultiQueryRAGConfig{
			Collections:      collections,
			TopK:             topK,
			MinScore:         cfg.DefaultMinScore,
			Synthesize:       synthesize,
			LLMModel:         model,
			APIKey:           apiKey,
			RetrieverOptions: retrieverOpts,
		})
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, queries []string) (string, error) {
			return r.Query(ctx, queries)
		}, nil

	case "multidoc":
		r, err := pdfrag.NewMultiDocumentRAG(pdfrag.MultiDocumentRAGConfig{
			Collections:      collections,
			TopK:             topK,
			MinScore:         cfg.DefaultMinScore,
			Synthesize:       synthesize,
			LLMModel:         model,
			APIKey:           apiKey,
			RetrieverOptions: retrieverOpts,
		})
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, queries []string) (string, error) {
			return r.Query(ctx, queries[0])
		}, nil

	case "hierarchical":
		r, err := pdfrag.NewHierarchicalRAG(pdfrag.HierarchicalRAGConfig{
			Collections:      collections,
			CoarseK:          cfg.CoarseK,
			FineK:            cfg.FineK,
			MinScore:         cfg.DefaultMinScore,
			Synthesize:       synthesize,
			LLMModel:         model,
			APIKey:           apiKey,
			RetrieverOptions: retrieverOpts,
		})
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, queries []string) (string, error) {
			return r.Query(ctx, queries[0])
		}, nil

	case "structured":
		r, err := pdfrag.NewStructuredOutputRAG(pdfrag.StructuredOutputRAGConfig{
			Collections:      collections,
			TopK:             topK,
			MinScore:         cfg.DefaultMinScore,
			Synthesize:       synthesize,
			LLMModel:         model,
			APIKey:           apiKey,
			RetrieverOptions: retrieverOpts,
		})
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, queries []string) (string, error) {
			resp, err := r.Query(ctx, queries[0])
			if err != nil {
				return "", err
			}
			encoded, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return "", err
			}
			return string(encoded), nil
		}, nil

	case "agentic":
		r, err := pdfrag.NewAgenticRAG(pdfrag.AgenticRAGConfig{
			Collections:      collections,
			TopK:             topK,
			MinScore:         cfg.DefaultMinScore,
			Synthesize:       synthesize,
			LLMModel:         model,
			APIKey:           apiKey,
			RetrieverOptions: retrieverOpts,
		})
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, queries []string) (string, error) {
			result, err := r.Query(ctx, queries[0])
			if err != nil {
				return "", err
			}
			var sb strings.Builder
			for _, step := range result.Reasoning {
				sb.WriteString(step)
				sb.WriteString("\n")
			}
			if result.Response != nil {
				encoded, err := json.MarshalIndent(result.Response, "", "  ")
				if err != nil {
					return "", err
				}
				sb.WriteString("\n")
				sb.Write(encoded)
			}
			return sb.String(), nil
		}, nil

	default:
		return nil, fmt.Errorf("unknown variant %q", variant)
	}
}

func interactive(ctx context.Context, variant string, ask askFunc) error {
	fmt.Printf("pdfrag %s - type a question, or 'exit' to quit\n", variant)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		queries := []string{line}
		if variant == "multiquery" {
			parts := strings.Split(line, "|")
			queries = queries[:0]
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					queries = append(queries, p)
				}
			}
		}

		answer, err := ask(ctx, queries)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		fmt.Println(answer)
	}
}
