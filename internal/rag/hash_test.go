package rag

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHash(t *testing.T) {
	hash, err := ContentHash(strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", hash)
}

func TestFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0644))

	hash, err := FileHash(path)
	require.NoError(t, err)
	assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", hash)

	_, err = FileHash(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "pdf_abc123", CollectionName("abc123"))
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "abc123_0", ChunkID("abc123", 0))
	assert.Equal(t, "abc123_17", ChunkID("abc123", 17))
}
