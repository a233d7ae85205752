package rag

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Loader resolves ingestion sources into local PDF paths. Remote URLs are
// downloaded into the temp directory; local paths are validated in place.
type Loader struct {
	client  *http.Client
	timeout time.Duration
	tempDir string
	logger  Logger
}

// NewLoader creates a new Loader with the given options.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		client:  http.DefaultClient,
		timeout: 30 * time.Second,
		tempDir: os.TempDir(),
		logger:  GlobalLogger,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption is a functional option for configuring a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient sets a custom HTTP client for the Loader.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) {
		l.client = client
	}
}

// WithTimeout sets a custom timeout for URL downloads.
func WithTimeout(timeout time.Duration) LoaderOption {
	return func(l *Loader) {
		l.timeout = timeout
	}
}

// WithTempDir sets the directory for downloaded files.
func WithTempDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.tempDir = dir
	}
}

// WithLogger sets a custom logger for the Loader.
func WithLogger(logger Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// LoadURL downloads a remote document into the temp directory and returns
// the local path.
func (l *Loader) LoadURL(ctx context.Context, url string) (string, error) {
	l.logger.Debug("Starting LoadURL", "url", url)
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for %s: %w", url, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	destPath := filepath.Join(l.tempDir, filepath.Base(url))
	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", destPath, err)
	}

	l.logger.Debug("Downloaded URL", "url", url, "path", destPath)
	return destPath, nil
}

// LoadFile validates that the path exists and is a regular file, and returns
// its absolute path.
func (l *Loader) LoadFile(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, not a file", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

// LoadDir walks a directory and returns the absolute paths of all PDF files
// found under it. Unreadable entries are skipped with a warning.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]string, error) {
	l.logger.Debug("Starting LoadDir", "dir", dir)

	var pdfs []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			l.logger.Warn("Error accessing path", "path", path, "error", err)
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".pdf" {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			l.logger.Warn("Failed to resolve path", "path", path, "error", err)
			return nil
		}
		pdfs = append(pdfs, abs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	l.logger.Debug("Scanned directory", "dir", dir, "pdfCount", len(pdfs))
	return pdfs, nil
}
