package rules

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

func init() {
	lint.Register(NumberedSteps)
}

// NumberedSteps reports a procedure that lacks numbered steps.
var NumberedSteps = lint.RuleDef{
	ID:          core.FindingStepsNumbering,
	Name:        "procedure.numbered_steps",
	Group:       "procedure",
	Description: "The procedure must be written as numbered steps.",
	Severity:    core.SeverityMajor,
	Order:       orderNumberedSteps,
	Check:       checkNumberedSteps,
	ConfigKeys:  []string{"numbered_steps.require_numbering"},
	Rationale:   "Numbered steps make execution order unambiguous and let deviations reference a step.",
	Fix:         "Use numbered steps under the Procedure section.",
}

// procedureWindow is how many bytes after the first "procedure" are inspected.
const procedureWindow = 4000

const minNumberedSteps = 2

var (
	procedureKeyword = regexp.MustCompile(`(?i)procedure`)
	stepLine         = regexp.MustCompile(`(?i)^(\d+\.|\d+\)|step\s*\d+\b)`)
)

func checkNumberedSteps(ctx *lint.Context) []core.Finding {
	if !ctx.Rules.NumberedSteps.RequireNumbering {
		return nil
	}
	loc := procedureKeyword.FindStringIndex(ctx.Text)
	if loc == nil {
		return nil
	}
	start := loc[0]
	snippet := ctx.Text[start:min(len(ctx.Text), start+procedureWindow)]

	var lines, steps int
	for _, line := range strings.Split(snippet, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines++
		if stepLine.MatchString(line) {
			steps++
		}
	}

	if steps < max(minNumberedSteps, lines*5/100) {
		return []core.Finding{{
			ID:       core.FindingStepsNumbering,
			Severity: core.SeverityMajor,
			Message:  "Procedure lacks sufficient numbered steps",
		}}
	}
	return nil
}
