// Package config provides configuration management for the pdfrag toolkit.
// It handles configuration loading, validation, and persistence with support
// for multiple sources:
//   - .env files (loaded via godotenv)
//   - Configuration files (JSON)
//   - Environment variables
//   - Programmatic defaults
//
// Settings can be overridden in the following order (highest to lowest
// precedence):
//  1. Environment variables
//  2. Configuration file
//  3. Default values
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the pdfrag system.
type Config struct {
	// Embedding settings
	EmbeddingProvider string // e.g. "openai"
	EmbeddingModel    string // e.g. "text-embedding-3-small"
	APIKeys           map[string]string

	// LLM settings for answer synthesis
	LLMModel string

	// Vector store settings
	VectorDBType    string // "chromem", "milvus", "memory"
	VectorDBAddress string // directory path for chromem, host:port for milvus

	// Document settings
	PDFDirectory string // default directory scanned for PDFs

	// Chunking settings
	MaxWords int
	Overlap  int

	// Search settings
	DefaultTopK     int
	DefaultMinScore float64
	CoarseK         int // hierarchical coarse stage
	FineK           int // hierarchical fine stage

	// Hybrid retrieval settings
	EnableHybrid bool
	DenseWeight  float64
	SparseWeight float64

	// System settings
	Timeout           time.Duration
	MaxConcurrency    int
	RequestsPerMinute int
	LogLevel          string
}

// Default returns the programmatic defaults.
func Default() *Config {
	return &Config{
		EmbeddingProvider: "openai",
		EmbeddingModel:    "text-embedding-3-small",
		APIKeys:           make(map[string]string),
		LLMModel:          "gpt-4o-mini",
		VectorDBType:      "chromem",
		VectorDBAddress:   "chroma_db",
		PDFDirectory:      "pdfs",
		MaxWords:          500,
		Overlap:           100,
		DefaultTopK:       5,
		DefaultMinScore:   0,
		CoarseK:           2,
		FineK:             3,
		EnableHybrid:      false,
		DenseWeight:       0.7,
		SparseWeight:      0.3,
		Timeout:           30 * time.Second,
		MaxConcurrency:    4,
		RequestsPerMinute: 0,
		LogLevel:          "info",
	}
}

// Load builds the configuration from defaults, an optional JSON file, and
// environment variables. A .env file in the working directory is loaded
// first when present.
//
// Configuration file search paths:
//  1. $PDFRAG_CONFIG environment variable
//  2. ~/.pdfrag/config.json
//  3. ~/.config/pdfrag/config.json
//  4. ./pdfrag.json
//
// Environment variable overrides: OPENAI_API_KEY, PDFRAG_EMBEDDING_MODEL,
// PDFRAG_LLM_MODEL, PDFRAG_DB_TYPE, PDFRAG_DB_ADDRESS, PDF_DIRECTORY,
// PDFRAG_TOP_K, PDFRAG_LOG_LEVEL.
func Load() (*Config, error) {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	cfg := Default()

	configFile := os.Getenv("PDFRAG_CONFIG")
	explicit := configFile != ""
	if configFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			candidates := []string{
				filepath.Join(home, ".pdfrag", "config.json"),
				filepath.Join(home, ".config", "pdfrag", "config.json"),
				"pdfrag.json",
			}
			for _, candidate := range candidates {
				if _, err := os.Stat(candidate); err == nil {
					configFile = candidate
					break
				}
			}
		}
	}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			// A file named via PDFRAG_CONFIG must be readable; discovered
			// candidates stay best-effort.
			if explicit {
				return nil, fmt.Errorf("cannot read config file %s: %w", configFile, err)
			}
		} else if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configFile, err)
		}
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.APIKeys["openai"] = key
	}
	if model := os.Getenv("PDFRAG_EMBEDDING_MODEL"); model != "" {
		cfg.EmbeddingModel = model
	}
	if model := os.Getenv("PDFRAG_LLM_MODEL"); model != "" {
		cfg.LLMModel = model
	}
	if dbType := os.Getenv("PDFRAG_DB_TYPE"); dbType != "" {
		cfg.VectorDBType = dbType
	}
	if addr := os.Getenv("PDFRAG_DB_ADDRESS"); addr != "" {
		cfg.VectorDBAddress = addr
	}
	if dir := os.Getenv("PDF_DIRECTORY"); dir != "" {
		cfg.PDFDirectory = dir
	}
	if topK := os.Getenv("PDFRAG_TOP_K"); topK != "" {
		n, err := strconv.Atoi(topK)
		if err != nil {
			return nil, fmt.Errorf("invalid PDFRAG_TOP_K %q: %w", topK, err)
		}
		cfg.DefaultTopK = n
	}
	if level := os.Getenv("PDFRAG_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	return cfg, nil
}

// APIKey returns the key configured for the given provider.
func (c *Config) APIKey(provider string) string {
	return c.APIKeys[provider]
}

// Save persists the configuration to a JSON file at the specified path,
// creating parent directories as needed.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
