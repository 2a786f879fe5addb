package rules

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

func init() {
	lint.Register(StaleReferences)
}

// StaleReferences reports dates older than the configured threshold that sit
// near effective-date, review or version wording.
var StaleReferences = lint.RuleDef{
	ID:          core.FindingStaleReference,
	Name:        "currency.stale_reference",
	Group:       "currency",
	Description: "Effective, review and version dates must be newer than the configured threshold.",
	Severity:    core.SeverityMinor,
	Order:       orderStaleReferences,
	Check:       checkStaleReferences,
	ConfigKeys:  []string{"stale_reference.years_threshold"},
	Rationale:   "Documents past their review period may no longer reflect current practice or standards.",
	Fix:         "Review/update dates; add 'last reviewed' if the standard edition is still current.",
}

// DefaultYearsThreshold applies when the rule file leaves the threshold unset.
const DefaultYearsThreshold = 3

const daysPerYear = 365.25

// Candidate patterns, scanned in order.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(19|20)\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}[\-/](\d{1,2}|[A-Za-z]{3})[\-/](19|20)\d{2}\b`),
	regexp.MustCompile(`\b(19|20)\d{2}-\d{2}-\d{2}\b`),
}

// Layouts tried in order; the first that parses wins.
var dateLayouts = []string{
	"2006",
	"2/1/2006",
	"2-1-2006",
	"2006-01-02",
	"2-Jan-2006",
	"2/Jan/2006",
}

var revisionContext = regexp.MustCompile(`\b(effective|last\s*(reviewed|updated)|version|rev(ision)?)\b`)

func checkStaleReferences(ctx *lint.Context) []core.Finding {
	threshold := float64(ctx.Rules.StaleReference.YearsThreshold)
	today := civilDate(ctx.Now)
	seen := make(map[string]bool)

	var findings []core.Finding
	for _, re := range datePatterns {
		for _, loc := range re.FindAllStringIndex(ctx.Text, -1) {
			start, end := loc[0], loc[1]
			raw := ctx.Text[start:end]
			date, ok := parseDate(raw)
			if !ok {
				ctx.Logger.Debug("skipping unparseable date", "value", raw)
				continue
			}
			age := ageInYears(today, date)
			if age <= threshold {
				continue
			}
			window := strings.ToLower(lint.Window(ctx.Text, start, end))
			if !revisionContext.MatchString(window) {
				continue
			}
			label := revisionLabel(window)
			if seen[label] {
				continue
			}
			seen[label] = true
			findings = append(findings, core.Finding{
				ID:       core.FindingStaleReference,
				Severity: core.SeverityMinor,
				Message:  fmt.Sprintf("Stale date/reference: %s (~%.1fy)", raw, age),
				Location: core.StringPtr(lint.Excerpt(ctx.Text, start, end)),
				Pos:      &core.Span{Start: start, End: end},
			})
		}
	}
	return findings
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// civilDate drops the clock and zone, keeping the calendar date of t.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ageInYears counts whole days between the dates.
func ageInYears(today, date time.Time) float64 {
	days := int(today.Sub(civilDate(date)).Hours() / 24)
	return float64(days) / daysPerYear
}

// revisionLabel collapses the keyword found in a lowercased window to one of
// four labels. Only the first stale date per label is reported.
func revisionLabel(window string) string {
	switch {
	case strings.Contains(window, "version"):
		return "version"
	case strings.Contains(window, "effective"):
		return "effective"
	case strings.Contains(window, "last"):
		return "last"
	default:
		return "rev"
	}
}
