package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/cli/output"
	"github.com/leapstack-labs/leapcheck/internal/ingest"
	"github.com/leapstack-labs/leapcheck/pkg/section"
)

// sectionPreviewChars bounds the body shown per section.
const sectionPreviewChars = 60

// SectionsOptions holds options for the sections command.
type SectionsOptions struct {
	Path   string
	Format string
}

// NewSectionsCommand creates the sections command.
func NewSectionsCommand() *cobra.Command {
	opts := &SectionsOptions{}
	cmd := &cobra.Command{
		Use:   "sections <file>",
		Short: "Show how a document splits into sections",
		Long: `Parse a document and list the sections the heading detector finds,
with their character spans. Findings are attributed to these sections.`,
		Example: `  leapcheck sections docs/SOP-001.docx
  leapcheck sections docs/SOP-001.docx --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			return runSections(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

func runSections(cmd *cobra.Command, opts *SectionsOptions) error {
	cmdCtx := NewCommandContext(cmd)
	if err := cmdCtx.SetFormat(cmd, opts.Format); err != nil {
		return err
	}
	r := cmdCtx.Renderer

	doc, err := ingest.File(opts.Path)
	if err != nil {
		return err
	}
	sections := section.Split(doc.Text)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(sections)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Sections: "+doc.Meta[ingest.MetaFilename]))
		r.Println("")
		for _, s := range sections {
			r.Println(output.FormatKeyValue(s.Heading, sectionSummary(s)))
		}
		return nil
	}

	r.Header(1, fmt.Sprintf("%d sections in %s", len(sections), doc.Meta[ingest.MetaFilename]))
	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Heading", "Start", "End", "Body"})
	for _, s := range sections {
		preview, truncated := previewText(truncate(s.Body, sectionPreviewChars*2), sectionPreviewChars)
		if truncated {
			preview += "..."
		}
		t.AppendRow(table.Row{r.Styles().Bold.Render(s.Heading), s.Start, s.End, preview})
	}
	t.Render()
	return nil
}
