package ingest

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the optional YAML header of a text document:
//
//	---
//	title: Cleaning of Production Equipment
//	document_id: SOP-014
//	version: "3.1"
//	---
//
// Unknown fields are rejected; use meta for extensions.
type FrontMatter struct {
	Title         string            `yaml:"title"`
	DocumentID    string            `yaml:"document_id"`
	Version       string            `yaml:"version"`
	Owner         string            `yaml:"owner"`
	EffectiveDate string            `yaml:"effective_date"`
	Extra         map[string]string `yaml:"meta"`

	// Body is the text after the header.
	Body string `yaml:"-"`
	// HasYAML reports whether a header was found.
	HasYAML bool `yaml:"-"`
}

// frontMatterPattern matches a --- delimited block at the very start.
var frontMatterPattern = regexp.MustCompile(`(?s)\A---[ \t]*\r?\n(.*?)\r?\n---[ \t]*(?:\r?\n|\z)`)

// FrontMatterError is a malformed front matter header.
type FrontMatterError struct {
	Message string
}

func (e *FrontMatterError) Error() string {
	return "front matter: " + e.Message
}

// ExtractFrontMatter splits a leading YAML header from text. Text without a
// header is returned unchanged in Body.
func ExtractFrontMatter(text string) (*FrontMatter, error) {
	m := frontMatterPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return &FrontMatter{Body: text}, nil
	}

	var fm FrontMatter
	dec := yaml.NewDecoder(strings.NewReader(text[m[2]:m[3]]))
	dec.KnownFields(true)
	if err := dec.Decode(&fm); err != nil && !errors.Is(err, io.EOF) {
		return nil, &FrontMatterError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	fm.Body = text[m[1]:]
	fm.HasYAML = true
	return &fm, nil
}

// Meta returns the header fields as document metadata. Empty fields are
// omitted.
func (f *FrontMatter) Meta() map[string]string {
	meta := make(map[string]string)
	for k, v := range f.Extra {
		meta[k] = v
	}
	set := func(k, v string) {
		if v = strings.TrimSpace(v); v != "" {
			meta[k] = v
		}
	}
	set("title", f.Title)
	set("document_id", f.DocumentID)
	set("version", f.Version)
	set("owner", f.Owner)
	set("effective_date", f.EffectiveDate)
	return meta
}
