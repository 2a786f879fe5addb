package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/cli/output"
	"github.com/leapstack-labs/leapcheck/internal/ingest"
	"github.com/leapstack-labs/leapcheck/internal/kb"
	_ "github.com/leapstack-labs/leapcheck/pkg/lint/rules" // register detectors
)

// ErrScoreBelowThreshold is returned when a score is under --fail-under.
var ErrScoreBelowThreshold = errors.New("compliance score below threshold")

// ValidateOptions holds options for the validate command.
type ValidateOptions struct {
	Path      string // Document to validate
	Format    string // Output format: text, markdown, json
	FailUnder int    // Minimum passing score, 0 disables the gate
	NoKB      bool   // Skip guideline citations
	NoFix     bool   // Hide remediation suggestions
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	opts := &ValidateOptions{}
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a document against the compliance rules",
		Long: `Parse a .txt, .docx or .pdf document, run every compliance rule over it
and print the findings with a 0-100 score.

Findings are cited against the configured guideline files unless --no-kb
is given. When the rule file enables the LLM, model findings are added.

Output adapts to environment:
  - Terminal: Styled table with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Validate a procedure
  leapcheck validate docs/SOP-001.docx

  # Fail in CI when the score drops below 80
  leapcheck validate docs/SOP-001.docx --fail-under 80

  # Output as JSON
  leapcheck validate docs/SOP-001.pdf --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			return runValidate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")
	cmd.Flags().IntVar(&opts.FailUnder, "fail-under", 0, "Exit with an error when the score is below this value")
	cmd.Flags().BoolVar(&opts.NoKB, "no-kb", false, "Do not cite guideline files")
	cmd.Flags().BoolVar(&opts.NoFix, "no-fix", false, "Hide remediation suggestions")

	return cmd
}

func runValidate(cmd *cobra.Command, opts *ValidateOptions) error {
	cmdCtx := NewCommandContext(cmd)
	if err := cmdCtx.SetFormat(cmd, opts.Format); err != nil {
		return err
	}
	r := cmdCtx.Renderer
	ctx := commandContext(cmd)

	rules, err := cmdCtx.LoadRules()
	if err != nil {
		return err
	}

	doc, err := ingest.File(opts.Path)
	if err != nil {
		return err
	}

	var searcher kb.Searcher
	if !opts.NoKB {
		k, cleanup, err := cmdCtx.LoadKB(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		searcher = k
	}

	v, err := cmdCtx.NewValidator(rules, searcher)
	if err != nil {
		return err
	}
	result, err := v.Validate(ctx, doc.Text, doc.Meta)
	if err != nil {
		return err
	}
	cmdCtx.Logger.Info("document validated",
		"path", opts.Path,
		"score", result.Score,
		"findings", len(result.Findings))

	source := filepath.Base(opts.Path)
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(result); err != nil {
			return err
		}
	case output.ModeMarkdown:
		renderResultMarkdown(r.Writer(), source, result, !opts.NoFix)
	default:
		renderResultText(r, source, result, !opts.NoFix)
	}

	if opts.FailUnder > 0 && result.Score < opts.FailUnder {
		return fmt.Errorf("%w: %d < %d", ErrScoreBelowThreshold, result.Score, opts.FailUnder)
	}
	return nil
}
