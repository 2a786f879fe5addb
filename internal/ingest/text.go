package ingest

import (
	"strings"
	"unicode/utf8"
)

const byteOrderMark = "\ufeff"

// TextParser reads UTF-8 plain text. Invalid byte sequences are dropped.
// A leading YAML front matter block is moved into the metadata.
type TextParser struct{}

// Name implements Parser.
func (TextParser) Name() string { return "txt" }

// Parse implements Parser.
func (TextParser) Parse(data []byte) (string, map[string]string, error) {
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	text = strings.TrimPrefix(text, byteOrderMark)

	fm, err := ExtractFrontMatter(text)
	if err != nil {
		return "", nil, err
	}
	return fm.Body, fm.Meta(), nil
}
