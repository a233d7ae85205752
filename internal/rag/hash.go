package rag

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// ContentHash fingerprints a document's raw bytes. The hash identifies a
// document across ingest runs so re-adding the same file is a no-op; md5 is
// used for identity only, never for security.
func ContentHash(r io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to hash content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FileHash returns the content hash of the file at path.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return ContentHash(f)
}

// CollectionName derives the vector collection name for a document hash.
// Every document gets its own collection, named after its content.
func CollectionName(hash string) string {
	return "pdf_" + hash
}

// ChunkID identifies a chunk within a document's collection.
func ChunkID(hash string, index int) string {
	return fmt.Sprintf("%s_%d", hash, index)
}
