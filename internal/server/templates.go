package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapcheck/internal/ingest"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

//go:embed templates/*.html
var templateFS embed.FS

// citationPreview is the number of citation characters shown before the
// full text is folded away.
const citationPreview = 160

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"upper":    strings.ToUpper,
	"truncate": truncateRunes,
	"lines":    func(s string) []string { return strings.Split(s, "\n") },
}).ParseFS(templateFS, "templates/*.html"))

type indexData struct {
	MaxUploadMB int64
	Accept      string
	Guidelines  string
}

type metaEntry struct {
	Key   string
	Value string
}

type parsedData struct {
	Meta     map[string]string
	Sections []core.Section
}

// Entries returns meta sorted by key.
func (d parsedData) Entries() []metaEntry {
	return sortedMeta(d.Meta)
}

// Filename returns the uploaded file name.
func (d parsedData) Filename() string {
	return d.Meta[ingest.MetaFilename]
}

type reportRow struct {
	Severity    string
	Message     string
	Suggestion  string
	Section     string
	Location    string
	Citation    string
	CitationCut bool
}

type reportData struct {
	Score    int
	Filename string
	Meta     []metaEntry
	Summary  string
	Rows     []reportRow
}

func newReport(result *core.ValidationResult) reportData {
	rows := make([]reportRow, 0, len(result.Findings))
	for _, f := range result.Findings {
		section := f.SectionText()
		if section == "" {
			section = "—"
		}
		citation := f.CitationText()
		rows = append(rows, reportRow{
			Severity:    string(f.Severity),
			Message:     f.Message,
			Suggestion:  lint.FixFor(f.ID),
			Section:     section,
			Location:    f.LocationText(),
			Citation:    citation,
			CitationCut: len([]rune(citation)) > citationPreview,
		})
	}

	counts := result.CountBySeverity()
	return reportData{
		Score:    result.Score,
		Filename: result.Meta[ingest.MetaFilename],
		Meta:     sortedMeta(result.Meta),
		Summary: pluralFindings(len(result.Findings)) + " (" +
			strconv.Itoa(counts[core.SeverityCritical]) + " critical, " +
			strconv.Itoa(counts[core.SeverityMajor]) + " major, " +
			strconv.Itoa(counts[core.SeverityMinor]) + " minor)",
		Rows: rows,
	}
}

func sortedMeta(meta map[string]string) []metaEntry {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]metaEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, metaEntry{Key: k, Value: meta[k]})
	}
	return out
}

// renderHTML executes the named page. Nothing is written on a template error.
func (s *Server) renderHTML(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("failed to render page", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func truncateRunes(n int, s string) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func pluralFindings(n int) string {
	if n == 1 {
		return "1 finding"
	}
	return strconv.Itoa(n) + " findings"
}
