package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/ingest"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/section"
)

// DefaultPreviewChars is the number of characters parse prints by default.
const DefaultPreviewChars = 400

// ParseOptions holds options for the parse command.
type ParseOptions struct {
	Path     string
	Preview  int  // Characters of text to print
	JSON     bool // Print the full document as JSON
	Sections bool // Include sections in the JSON output
}

// parsedDocument is the JSON shape of the parse command.
type parsedDocument struct {
	Text     string            `json:"text"`
	Meta     map[string]string `json:"meta"`
	Sections []core.Section    `json:"sections,omitempty"`
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Extract and preview the text of a document",
		Long: `Parse a .txt, .docx or .pdf document and show a quick preview of the
normalized text, or the full text and metadata as JSON.`,
		Example: `  # Preview the first 400 characters
  leapcheck parse docs/SOP-001.docx

  # Full text, metadata and sections as JSON
  leapcheck parse docs/SOP-001.pdf --json --sections`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			return runParse(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Preview, "preview", DefaultPreviewChars, "Print first N characters")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output full JSON instead of preview")
	cmd.Flags().BoolVar(&opts.Sections, "sections", false, "Include sections in JSON output")

	return cmd
}

func runParse(cmd *cobra.Command, opts *ParseOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	doc, err := ingest.File(opts.Path)
	if err != nil {
		return err
	}
	cmdCtx.Logger.Debug("document parsed", "path", opts.Path, "parser", doc.Meta[ingest.MetaParser], "length", len(doc.Text))

	if opts.JSON {
		out := parsedDocument{Text: doc.Text, Meta: doc.Meta}
		if opts.Sections {
			out.Sections = section.Split(doc.Text)
		}
		return r.JSON(out)
	}

	r.Printf("File: %s\n", doc.Meta[ingest.MetaFilename])
	r.Printf("Type: %s (parser=%s)\n", doc.Meta[ingest.MetaSuffix], doc.Meta[ingest.MetaParser])
	if pages, ok := doc.Meta[ingest.MetaNumPages]; ok {
		r.Printf("Pages: %s\n", pages)
	}
	preview, truncated := previewText(doc.Text, opts.Preview)
	r.Println("--- Preview ---")
	r.Println(preview)
	if truncated {
		r.Println("\n... (truncated) ...")
	}
	return nil
}

// previewText returns the first n runes of s and whether s was longer.
func previewText(s string, n int) (string, bool) {
	if n < 0 {
		n = 0
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}

func sectionSummary(s core.Section) string {
	return fmt.Sprintf("%d-%d, %d chars", s.Start, s.End, len([]rune(s.Body)))
}
