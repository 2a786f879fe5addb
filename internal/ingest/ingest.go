// Package ingest extracts normalized plain text from compliance documents.
//
// Supported formats are plain text, Word (.docx) and PDF. Every document
// carries metadata with at least "filename", "suffix" and "parser".
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupportedType is returned for file extensions without a parser.
var ErrUnsupportedType = errors.New("unsupported file type")

// Meta keys set on every document.
const (
	MetaFilename = "filename"
	MetaSuffix   = "suffix"
	MetaParser   = "parser"
	MetaNumPages = "num_pages"
)

// Document is extracted text plus metadata.
type Document struct {
	Text string            `json:"text"`
	Meta map[string]string `json:"meta"`
}

// Parser extracts raw text and parser-specific metadata from file content.
type Parser interface {
	// Name is recorded as the "parser" meta value.
	Name() string
	// Parse returns un-normalized text.
	Parse(data []byte) (text string, meta map[string]string, err error)
}

var parsers = map[string]Parser{
	".txt":  TextParser{},
	".docx": DocxParser{},
	".pdf":  PDFParser{},
}

// ForFile returns the parser for name's extension.
func ForFile(name string) (Parser, error) {
	ext := filepath.Ext(name)
	p, ok := parsers[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	return p, nil
}

// Supported reports whether name has a parser.
func Supported(name string) bool {
	_, ok := parsers[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extensions returns the supported extensions, sorted.
func Extensions() []string {
	out := make([]string, 0, len(parsers))
	for ext := range parsers {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// File reads and parses the document at path.
func File(path string) (*Document, error) {
	if _, err := ForFile(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Bytes(filepath.Base(path), data)
}

// Bytes parses document content. filename selects the parser and is
// recorded in the metadata.
func Bytes(filename string, data []byte) (*Document, error) {
	p, err := ForFile(filename)
	if err != nil {
		return nil, err
	}

	raw, extra, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	meta := make(map[string]string, len(extra)+3)
	for k, v := range extra {
		meta[k] = v
	}
	meta[MetaFilename] = filepath.Base(filename)
	meta[MetaSuffix] = strings.ToLower(filepath.Ext(filename))
	meta[MetaParser] = p.Name()

	return &Document{Text: Normalize(raw), Meta: meta}, nil
}
