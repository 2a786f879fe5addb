package core

// Score bounds.
const (
	MinScore = 0
	MaxScore = 100
)

// ValidationResult is the structured compliance assessment of one document.
// It is owned by the caller of the validation; nothing retains it.
type ValidationResult struct {
	Findings []Finding         `json:"findings"`
	Score    int               `json:"score"`
	Meta     map[string]string `json:"meta"`
}

// CountBySeverity tallies findings per normalized severity.
func (r *ValidationResult) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	if r == nil {
		return counts
	}
	for _, f := range r.Findings {
		counts[f.Severity.Normalize()]++
	}
	return counts
}

// CopyMeta returns a shallow copy of meta; nil becomes an empty map.
func CopyMeta(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
