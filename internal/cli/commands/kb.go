package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/cli/output"
	"github.com/leapstack-labs/leapcheck/internal/kb"
)

// DefaultSearchResults is the number of matches kb search prints.
const DefaultSearchResults = 3

// KBSearchOptions holds options for the kb search command.
type KBSearchOptions struct {
	Query  string
	K      int
	Format string
}

// NewKBCommand creates the kb command.
func NewKBCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Inspect the guideline knowledge base",
		Long: `The knowledge base holds the guideline files that findings are cited
against. Files come from the "guidelines" list and the guidelines directory
in leapcheck.yaml.`,
	}
	cmd.AddCommand(newKBSearchCommand())
	cmd.AddCommand(newKBListCommand())
	return cmd
}

func newKBSearchCommand() *cobra.Command {
	opts := &KBSearchOptions{}
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find the guideline passages most similar to a query",
		Example: `  leapcheck kb search "approval signatures"
  leapcheck kb search "retention of records" -k 5 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Query = args[0]
			return runKBSearch(cmd, opts)
		},
	}
	cmd.Flags().IntVarP(&opts.K, "k", "k", DefaultSearchResults, "Number of matches")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")
	return cmd
}

func newKBListCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the indexed guideline files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runKBList(cmd, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, markdown, json")
	return cmd
}

func runKBSearch(cmd *cobra.Command, opts *KBSearchOptions) error {
	cmdCtx := NewCommandContext(cmd)
	if err := cmdCtx.SetFormat(cmd, opts.Format); err != nil {
		return err
	}
	r := cmdCtx.Renderer

	k, cleanup, err := cmdCtx.LoadKB(commandContext(cmd))
	if err != nil {
		return err
	}
	defer cleanup()

	matches, err := k.Similar(commandContext(cmd), opts.Query, opts.K)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if matches == nil {
		matches = []kb.Match{}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(matches)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Matches for: "+opts.Query))
		r.Println("")
		for i, m := range matches {
			r.Printf("%d. **%.3f** `%s` %s\n", i+1, m.Score, filepath.Base(m.Source), truncate(m.Excerpt, maxCitationWidth))
		}
		return nil
	}

	if len(matches) == 0 {
		r.Muted("No guideline passages indexed")
		return nil
	}
	styles := r.Styles()
	for i, m := range matches {
		r.Printf("%d. %s %s\n", i+1, styles.Bold.Render(fmt.Sprintf("%.3f", m.Score)), styles.FilePath.Render(filepath.Base(m.Source)))
		r.Println("   " + truncate(m.Excerpt, maxCitationWidth))
	}
	return nil
}

// kbListOutput is the JSON shape of kb list.
type kbListOutput struct {
	Embedder string         `json:"embedder"`
	Chunks   int            `json:"chunks"`
	Files    []kbFileOutput `json:"files"`
}

type kbFileOutput struct {
	Path   string `json:"path"`
	Chunks int    `json:"chunks"`
}

func runKBList(cmd *cobra.Command, format string) error {
	cmdCtx := NewCommandContext(cmd)
	if err := cmdCtx.SetFormat(cmd, format); err != nil {
		return err
	}
	r := cmdCtx.Renderer

	k, cleanup, err := cmdCtx.LoadKB(commandContext(cmd))
	if err != nil {
		return err
	}
	defer cleanup()

	perSource := make(map[string]int)
	for _, c := range k.Chunks() {
		perSource[c.Source]++
	}
	out := kbListOutput{Embedder: k.Embedder().Name(), Chunks: k.Len(), Files: []kbFileOutput{}}
	for _, src := range k.Sources() {
		out.Files = append(out.Files, kbFileOutput{Path: src, Chunks: perSource[src]})
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.AppendHeader(table.Row{"File", "Chunks"})
	for _, f := range out.Files {
		t.AppendRow(table.Row{f.Path, f.Chunks})
	}
	t.AppendFooter(table.Row{"Total (" + out.Embedder + ")", out.Chunks})
	if r.EffectiveMode() == output.ModeMarkdown {
		t.RenderMarkdown()
		return nil
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
