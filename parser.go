package pdfrag

import (
	"github.com/nmehta6/pdfrag/internal/rag"
)

// Document is the extracted content of one source file. Content holds the
// full text; Pages keeps the per-page breakdown that chunking uses to track
// which pages each chunk spans.
type Document = rag.Document

// PageText is one page of extracted text with its 1-based page number.
type PageText = rag.PageText

// Parser extracts a Document from a file on disk.
type Parser interface {
	Parse(filePath string) (Document, error)
}

// NewParser returns a parser that routes files by type, with PDF and plain
// text handlers preinstalled.
func NewParser() Parser {
	return rag.NewParserManager()
}

// SetFileTypeDetector replaces how a routing parser maps file paths to
// types. The default goes by extension.
func SetFileTypeDetector(p Parser, detector func(string) string) {
	if pm, ok := p.(*rag.ParserManager); ok {
		pm.SetFileTypeDetector(detector)
	}
}

// WithParser registers a handler for the given file type on a routing
// parser.
func WithParser(p Parser, fileType string, parser Parser) {
	if pm, ok := p.(*rag.ParserManager); ok {
		pm.AddParser(fileType, parser)
	}
}

// TextParser returns a parser for plain text files. The whole file becomes
// a single page.
func TextParser() Parser {
	return rag.NewTextParser()
}

// PDFParser returns a parser that extracts text page by page from PDF
// files. Ingestion uses it unless another parser is injected.
func PDFParser() Parser {
	return rag.NewPDFParser()
}
