package ingest

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFParser extracts the plain text of every page. Pages whose text cannot
// be extracted contribute an empty line so page order is kept.
type PDFParser struct{}

// Name implements Parser.
func (PDFParser) Name() string { return "pdf" }

// Parse implements Parser. The page count is reported as "num_pages".
func (PDFParser) Parse(data []byte) (text string, meta map[string]string, err error) {
	// The reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text, meta, err = "", nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("malformed pdf: %w", err)
	}

	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		pages = append(pages, pageText(r.Page(i)))
	}
	return strings.Join(pages, "\n"), map[string]string{MetaNumPages: strconv.Itoa(n)}, nil
}

func pageText(p pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	if p.V.IsNull() {
		return ""
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}
