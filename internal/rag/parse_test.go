package rag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextParser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("some plain text"), 0644))

	doc, err := NewTextParser().Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "some plain text", doc.Content)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, 1, doc.Pages[0].Page)
	assert.Equal(t, "text", doc.Metadata["file_type"])
}

func TestParserManagerRoutesByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("routed"), 0644))

	doc, err := NewParserManager().Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "routed", doc.Content)
}

func TestParserManagerUnsupportedType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89}, 0644))

	_, err := NewParserManager().Parse(path)
	assert.Error(t, err)
}

func TestParserManagerCustomDetectorAndParser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.custom")
	require.NoError(t, os.WriteFile(path, []byte("custom content"), 0644))

	pm := NewParserManager()
	pm.SetFileTypeDetector(func(string) string { return "custom" })
	pm.AddParser("custom", NewTextParser())

	doc, err := pm.Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "custom content", doc.Content)
}

func TestPDFParserMissingFile(t *testing.T) {
	_, err := NewPDFParser().Parse(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
