package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

func init() {
	lint.Register(Placeholders)
}

// Placeholders reports unresolved placeholder text matched by the configured patterns.
var Placeholders = lint.RuleDef{
	ID:          core.FindingPlaceholder,
	Name:        "content.placeholder",
	Group:       "content",
	Description: "Placeholder text such as TBD or XXX must be replaced before release.",
	Severity:    core.SeverityMajor,
	Order:       orderPlaceholders,
	Check:       checkPlaceholders,
	ConfigKeys:  []string{"placeholder_patterns"},
	Rationale:   "Placeholders leave requirements undefined in an approved document.",
	Fix:         "Replace placeholders (TBD/XXX) with final values.",
}

// notApplicablePattern is never run: "N/A" is a legitimate table value.
const notApplicablePattern = `\bN/?A\b`

var signatureContext = regexp.MustCompile(`\b(prepared by|reviewed by|approved by|signature)\b`)

func checkPlaceholders(ctx *lint.Context) []core.Finding {
	var findings []core.Finding
	for _, pattern := range ctx.Rules.PlaceholderPatterns {
		if strings.TrimSpace(pattern) == notApplicablePattern {
			continue
		}
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			ctx.Logger.Debug("skipping invalid placeholder pattern", "pattern", pattern, "error", err)
			continue
		}
		for _, loc := range re.FindAllStringIndex(ctx.Text, -1) {
			start, end := loc[0], loc[1]
			if start == end {
				continue
			}
			match := ctx.Text[start:end]
			if isSignatureBlank(ctx.Text, match, start, end) {
				continue
			}
			findings = append(findings, core.Finding{
				ID:       core.FindingPlaceholder,
				Severity: core.SeverityMajor,
				Message:  fmt.Sprintf("Placeholder detected: '%s'", match),
				Location: core.StringPtr(lint.Excerpt(ctx.Text, start, end)),
				Pos:      &core.Span{Start: start, End: end},
			})
		}
	}
	return findings
}

// isSignatureBlank reports whether an all-underscore match sits next to a
// sign-off label, which makes it a signature line rather than a placeholder.
func isSignatureBlank(text, match string, start, end int) bool {
	if !isUnderscores(match) {
		return false
	}
	window := strings.ToLower(lint.Window(text, start, end))
	return signatureContext.MatchString(window)
}

func isUnderscores(s string) bool {
	return s != "" && strings.Trim(s, "_") == ""
}
