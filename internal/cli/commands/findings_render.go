package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/leapcheck/internal/cli/output"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

// maxCitationWidth bounds the citation shown in tables.
const maxCitationWidth = 160

func renderResultText(r *output.Renderer, source string, result *core.ValidationResult, showFix bool) {
	styles := r.Styles()
	r.Println(styles.Header1.Render("Compliance score: ") + styles.Score(result.Score).Render(fmt.Sprintf("%d", result.Score)))
	r.Println(styles.FilePath.Render(source))
	r.Println("")

	if len(result.Findings) == 0 {
		r.Success("No findings")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Severity", "Finding", "Section", "Context"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 60},
		{Number: 5, WidthMax: 50},
	})

	for i, f := range result.Findings {
		sev := string(f.Severity.Normalize())
		finding := f.Message
		if showFix {
			finding += "\n" + styles.Muted.Render(lint.FixFor(f.ID))
		}
		t.AppendRow(table.Row{
			i + 1,
			styles.Severity(sev).Render(strings.ToUpper(sev)),
			finding,
			orDash(f.SectionText()),
			orDash(f.LocationText()),
		})
	}
	t.Render()

	citations := citedFindings(result.Findings)
	if len(citations) > 0 {
		r.Println("")
		r.Println(styles.Header2.Render("Guideline citations"))
		for _, i := range citations {
			r.Printf("  %d. %s\n", i+1, styles.Muted.Render(truncate(result.Findings[i].CitationText(), maxCitationWidth)))
		}
	}

	r.Println("")
	r.Println(summaryLine(result))
}

func renderResultMarkdown(w io.Writer, source string, result *core.ValidationResult, showFix bool) {
	_, _ = fmt.Fprintln(w, output.FormatHeader(1, "Validation: "+source))
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, output.FormatKeyValue("Score", fmt.Sprintf("%d", result.Score)))
	_, _ = fmt.Fprintln(w, output.FormatKeyValue("Findings", summaryLine(result)))
	_, _ = fmt.Fprintln(w)

	if len(result.Findings) == 0 {
		_, _ = fmt.Fprintln(w, "No findings.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	header := table.Row{"Severity", "Finding", "Section", "Context", "Citation"}
	if showFix {
		header = append(header, "Suggestion")
	}
	t.AppendHeader(header)
	for _, f := range result.Findings {
		row := table.Row{
			strings.ToUpper(string(f.Severity.Normalize())),
			f.Message,
			orDash(f.SectionText()),
			f.LocationText(),
			truncate(f.CitationText(), maxCitationWidth),
		}
		if showFix {
			row = append(row, lint.FixFor(f.ID))
		}
		t.AppendRow(row)
	}
	t.RenderMarkdown()
}

func citedFindings(findings []core.Finding) []int {
	var out []int
	for i, f := range findings {
		if f.CitationText() != "" {
			out = append(out, i)
		}
	}
	return out
}

func summaryLine(result *core.ValidationResult) string {
	counts := result.CountBySeverity()
	return fmt.Sprintf("%d findings (%d critical, %d major, %d minor)",
		len(result.Findings),
		counts[core.SeverityCritical],
		counts[core.SeverityMajor],
		counts[core.SeverityMinor])
}

// truncate shortens s to n runes on a single line, marking the cut with "...".
func truncate(s string, n int) string {
	s = lint.CollapseWhitespace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
