package rag

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageText is the extracted text of a single page. Page numbers are 1-based.
type PageText struct {
	Text string
	Page int
}

// Document is a parsed source file. Content is the full extracted text,
// Pages preserves per-page provenance for PDF sources.
type Document struct {
	Content  string
	Pages    []PageText
	Metadata map[string]string
}

// Parser turns a file on disk into a Document.
type Parser interface {
	Parse(filePath string) (Document, error)
}

// ParserManager routes files to a registered Parser based on file type.
type ParserManager struct {
	fileTypeDetector func(string) string
	parsers          map[string]Parser
}

// NewParserManager returns a manager with the default extension-based
// detector and parsers for PDF and plain text files.
func NewParserManager() *ParserManager {
	pm := &ParserManager{
		fileTypeDetector: defaultFileTypeDetector,
		parsers:          make(map[string]Parser),
	}
	pm.parsers["pdf"] = NewPDFParser()
	pm.parsers["text"] = NewTextParser()
	return pm
}

// Parse routes the file to the parser registered for its detected type.
func (pm *ParserManager) Parse(filePath string) (Document, error) {
	fileType := pm.fileTypeDetector(filePath)
	parser, ok := pm.parsers[fileType]
	if !ok {
		GlobalLogger.Error("No parser available for file type", "type", fileType, "path", filePath)
		return Document{}, fmt.Errorf("no parser available for file type: %s", fileType)
	}
	doc, err := parser.Parse(filePath)
	if err != nil {
		GlobalLogger.Error("Failed to parse document", "path", filePath, "error", err)
		return Document{}, err
	}
	GlobalLogger.Debug("Parsed document", "path", filePath, "type", fileType)
	return doc, nil
}

// SetFileTypeDetector replaces the extension-based type detection.
func (pm *ParserManager) SetFileTypeDetector(detector func(string) string) {
	pm.fileTypeDetector = detector
}

// AddParser registers a parser for a file type.
func (pm *ParserManager) AddParser(fileType string, parser Parser) {
	pm.parsers[fileType] = parser
}

func defaultFileTypeDetector(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".pdf":
		return "pdf"
	case ".txt":
		return "text"
	default:
		return "unknown"
	}
}

// PDFParser extracts text from PDF files page by page using ledongthuc/pdf.
type PDFParser struct{}

// NewPDFParser returns a PDFParser.
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Parse extracts the text of every page. Pages without extractable text
// (scanned images, charts) yield an empty PageText and a warning; extraction
// continues with the remaining pages.
func (p *PDFParser) Parse(filePath string) (Document, error) {
	pages, err := p.extractPages(filePath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to extract text: %w", err)
	}

	var content strings.Builder
	for _, pt := range pages {
		content.WriteString(pt.Text)
		content.WriteString("\n\n")
	}

	return Document{
		Content: content.String(),
		Pages:   pages,
		Metadata: map[string]string{
			"file_type":  "pdf",
			"file_path":  filePath,
			"page_count": strconv.Itoa(len(pages)),
		},
	}, nil
}

func (p *PDFParser) extractPages(filePath string) ([]PageText, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	reader, err := pdf.NewReader(file, fileInfo.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]PageText, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, PageText{Page: i})
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			GlobalLogger.Warn("Page has no extractable text", "path", filePath, "page", i)
		}
		pages = append(pages, PageText{Text: text, Page: i})
	}

	return pages, nil
}

// PageCount reports the number of pages in a PDF without extracting text.
// Used on the ingest dedup path, where only collection metadata is needed.
func PageCount(filePath string) (int, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to get file info: %w", err)
	}

	reader, err := pdf.NewReader(file, fileInfo.Size())
	if err != nil {
		return 0, fmt.Errorf("failed to create PDF reader: %w", err)
	}
	return reader.NumPage(), nil
}

// TextParser reads plain text files. The whole file becomes a single page.
type TextParser struct{}

// NewTextParser returns a TextParser.
func NewTextParser() *TextParser {
	return &TextParser{}
}

// Parse reads the file and returns its content as a one-page Document.
func (p *TextParser) Parse(filePath string) (Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read file: %w", err)
	}
	text := string(content)
	return Document{
		Content: text,
		Pages:   []PageText{{Text: text, Page: 1}},
		Metadata: map[string]string{
			"file_type":  "text",
			"file_path":  filePath,
			"page_count": "1",
		},
	}, nil
}
