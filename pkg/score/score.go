// Package score converts a finding list into a bounded compliance score.
package score

import (
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Multipliers scale the configured weight of each severity.
// Severities not listed use a multiplier of 1.
var Multipliers = map[core.Severity]int{
	core.SeverityCritical: 8,
	core.SeverityMajor:    4,
	core.SeverityMinor:    1,
}

// Weights holds per-severity weights and per-id penalties.
type Weights struct {
	severity map[string]int
	id       map[string]int
}

// NewWeights builds scoring weights from rule configuration.
// Severity keys are matched case-insensitively.
func NewWeights(severityWeights, idPenalties map[string]int) Weights {
	w := Weights{
		severity: make(map[string]int, len(severityWeights)),
		id:       idPenalties,
	}
	for k, v := range severityWeights {
		w.severity[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return w
}

// Penalty returns the points a single finding costs. Never negative.
func (w Weights) Penalty(f core.Finding) int {
	sev := f.Severity.Normalize()

	weight, ok := w.severity[string(sev)]
	if !ok {
		weight = 1
	}
	multiplier, ok := Multipliers[sev]
	if !ok {
		multiplier = 1
	}

	return max(0, weight*multiplier) + max(0, w.id[string(f.ID)])
}

// Total sums the penalties of all findings.
func (w Weights) Total(findings []core.Finding) int {
	total := 0
	for _, f := range findings {
		total += w.Penalty(f)
	}
	return total
}

// Score maps findings onto [core.MinScore, core.MaxScore].
func (w Weights) Score(findings []core.Finding) int {
	return max(core.MinScore, core.MaxScore-min(core.MaxScore, w.Total(findings)))
}

// Compute scores findings with the given severity weights and id penalties.
func Compute(findings []core.Finding, severityWeights, idPenalties map[string]int) int {
	return NewWeights(severityWeights, idPenalties).Score(findings)
}
