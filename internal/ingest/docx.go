package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBodyPart = "word/document.xml"

// DocxParser reads Word documents. Body paragraphs come first, followed by
// the cells of every top-level table in document order.
type DocxParser struct{}

// Name implements Parser.
func (DocxParser) Name() string { return "docx" }

// Parse implements Parser.
func (DocxParser) Parse(data []byte) (string, map[string]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, fmt.Errorf("not a docx archive: %w", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", nil, fmt.Errorf("docx archive has no %s", docxBodyPart)
	}

	rc, err := part.Open()
	if err != nil {
		return "", nil, fmt.Errorf("failed to open %s: %w", docxBodyPart, err)
	}
	defer rc.Close()

	paragraphs, cells, err := readDocumentXML(rc)
	if err != nil {
		return "", nil, err
	}
	return strings.Join(append(paragraphs, cells...), "\n"), nil, nil
}

// readDocumentXML walks WordprocessingML and collects the text of body
// paragraphs and of top-level table cells. Nested tables and paragraphs in
// other containers (text boxes, content controls) are not collected.
func readDocumentXML(r io.Reader) (paragraphs, cells []string, err error) {
	dec := xml.NewDecoder(r)

	var (
		stack     []string          // open element local names
		paraStack []*strings.Builder // innermost open paragraph last
		cellParas []string
		tblDepth  int
	)
	parent := func() string {
		if len(stack) < 2 {
			return ""
		}
		return stack[len(stack)-2]
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("malformed %s: %w", docxBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			stack = append(stack, name)
			switch name {
			case "tbl":
				tblDepth++
			case "tc":
				if tblDepth == 1 {
					cellParas = cellParas[:0]
				}
			case "p":
				paraStack = append(paraStack, &strings.Builder{})
			case "tab":
				if len(paraStack) > 0 && parent() == "r" {
					paraStack[len(paraStack)-1].WriteByte('\t')
				}
			case "br", "cr":
				if len(paraStack) > 0 {
					paraStack[len(paraStack)-1].WriteByte('\n')
				}
			}

		case xml.CharData:
			if len(stack) > 0 && stack[len(stack)-1] == "t" && len(paraStack) > 0 {
				paraStack[len(paraStack)-1].Write(t)
			}

		case xml.EndElement:
			name := t.Name.Local
			switch name {
			case "p":
				if len(paraStack) > 0 {
					text := paraStack[len(paraStack)-1].String()
					paraStack = paraStack[:len(paraStack)-1]
					switch {
					case parent() == "body":
						paragraphs = append(paragraphs, text)
					case parent() == "tc" && tblDepth == 1:
						cellParas = append(cellParas, text)
					}
				}
			case "tc":
				if tblDepth == 1 {
					cells = append(cells, strings.Join(cellParas, "\n"))
				}
			case "tbl":
				tblDepth--
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return paragraphs, cells, nil
}
