package core

import "strings"

// =============================================================================
// Severity
// =============================================================================

// Severity indicates the importance of a compliance finding.
//
// Severities are kept as strings because findings produced by the LLM
// augmenter may carry values outside the known set; those are scored with
// the neutral weight.
type Severity string

// Severity levels for findings.
const (
	// SeverityCritical marks a gap that invalidates the document (missing section or approval).
	SeverityCritical Severity = "critical"
	// SeverityMajor marks content that must be fixed before release.
	SeverityMajor Severity = "major"
	// SeverityMinor marks housekeeping issues such as stale dates.
	SeverityMinor Severity = "minor"
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// Rank orders severities from most to least important.
// Unknown severities sort after minor.
func (s Severity) Rank() int {
	switch s.Normalize() {
	case SeverityCritical:
		return 0
	case SeverityMajor:
		return 1
	case SeverityMinor:
		return 2
	default:
		return 3
	}
}

// Normalize lower-cases the severity.
func (s Severity) Normalize() Severity {
	return Severity(strings.ToLower(strings.TrimSpace(string(s))))
}

// ParseSeverity converts a string to a Severity value.
// Returns the severity and true if valid, or SeverityMinor and false if invalid.
func ParseSeverity(s string) (Severity, bool) {
	switch sev := Severity(s).Normalize(); sev {
	case SeverityCritical, SeverityMajor, SeverityMinor:
		return sev, true
	default:
		return SeverityMinor, false
	}
}

// =============================================================================
// RuleInfo
// =============================================================================

// RuleInfo provides metadata about a compliance rule for documentation/tooling.
// This is a DTO (Data Transfer Object) - it carries data without behavior.
type RuleInfo struct {
	ID              FindingID `json:"id"`
	Name            string    `json:"name"`
	Group           string    `json:"group"`
	Description     string    `json:"description"`
	DefaultSeverity Severity  `json:"default_severity"`
	ConfigKeys      []string  `json:"config_keys,omitempty"`
	Order           int       `json:"order"`

	// Documentation fields
	Rationale string `json:"rationale,omitempty"`
	Fix       string `json:"fix,omitempty"`
}
