package rules

import (
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

func init() {
	lint.Register(RequiredSections)
}

// RequiredSections reports configured section names that never appear in the text.
var RequiredSections = lint.RuleDef{
	ID:          core.FindingMissingSection,
	Name:        "structure.required_sections",
	Group:       "structure",
	Description: "Every configured section name must appear in the document.",
	Severity:    core.SeverityCritical,
	Order:       orderRequiredSections,
	Check:       checkRequiredSections,
	ConfigKeys:  []string{"required_sections"},
	Rationale:   "Controlled documents are audited against a fixed outline; a missing section is a missing control.",
	Fix:         "Add the missing section and define ownership, storage, retention, and signatures.",
}

func checkRequiredSections(ctx *lint.Context) []core.Finding {
	return missingLabels(ctx.Text, ctx.Rules.RequiredSections, func(name string) core.Finding {
		return core.Finding{
			ID:       core.FindingMissingSection,
			Severity: core.SeverityCritical,
			Message:  "Missing section: " + name,
		}
	})
}

// missingLabels returns one finding per label that is not a case-insensitive
// substring of text, in label order.
func missingLabels(text string, labels []string, build func(string) core.Finding) []core.Finding {
	lower := strings.ToLower(text)
	var findings []core.Finding
	for _, label := range labels {
		if !strings.Contains(lower, strings.ToLower(label)) {
			findings = append(findings, build(label))
		}
	}
	return findings
}
