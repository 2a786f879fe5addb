package lint

import (
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Context is the input shared by all detectors for a single run.
// Detectors must treat it as read-only.
type Context struct {
	// Text is the normalized document text.
	Text string
	// Rules is the rule configuration. Never nil inside a Check call.
	Rules *core.Rules
	// Now is the reference time for date arithmetic.
	Now time.Time
	// Logger receives detector-internal diagnostics.
	Logger *slog.Logger
}

// CheckFunc scans the context and returns raw findings.
type CheckFunc func(ctx *Context) []core.Finding

// RuleDef is a data-driven rule definition.
// Rules are stateless - all context comes via the Check function parameter.
type RuleDef struct {
	ID          core.FindingID // Finding id emitted by the rule, e.g. "placeholder"
	Name        string         // Human-readable name, e.g. "content.placeholder"
	Group       string         // Category, e.g. "structure", "content", "currency"
	Description string         // Human-readable description
	Severity    core.Severity  // Severity assigned to emitted findings
	Order       int            // Position in the canonical output order
	Check       CheckFunc      // The check function
	ConfigKeys  []string       // Rule file keys the rule reads

	// Documentation fields
	Rationale string // Why the rule exists
	Fix       string // Remediation advice shown in reports
}

// Rule is the interface the Analyzer runs.
type Rule interface {
	ID() core.FindingID
	Name() string
	Group() string
	Description() string
	DefaultSeverity() core.Severity
	Order() int
	ConfigKeys() []string
	Check(ctx *Context) []core.Finding
}

type wrappedRuleDef struct {
	def RuleDef
}

// WrapRuleDef wraps a RuleDef to implement Rule.
func WrapRuleDef(def RuleDef) Rule {
	return &wrappedRuleDef{def: def}
}

func (w *wrappedRuleDef) ID() core.FindingID             { return w.def.ID }
func (w *wrappedRuleDef) Name() string                   { return w.def.Name }
func (w *wrappedRuleDef) Group() string                  { return w.def.Group }
func (w *wrappedRuleDef) Description() string            { return w.def.Description }
func (w *wrappedRuleDef) DefaultSeverity() core.Severity { return w.def.Severity }
func (w *wrappedRuleDef) Order() int                     { return w.def.Order }
func (w *wrappedRuleDef) ConfigKeys() []string           { return w.def.ConfigKeys }

func (w *wrappedRuleDef) Check(ctx *Context) []core.Finding {
	if w.def.Check == nil {
		return nil
	}
	return w.def.Check(ctx)
}

// Unwrap returns the underlying RuleDef.
func (w *wrappedRuleDef) Unwrap() RuleDef {
	return w.def
}

// GetRuleInfo extracts metadata from a Rule for documentation/tooling.
func GetRuleInfo(r Rule) core.RuleInfo {
	info := core.RuleInfo{
		ID:              r.ID(),
		Name:            r.Name(),
		Group:           r.Group(),
		Description:     r.Description(),
		DefaultSeverity: r.DefaultSeverity(),
		ConfigKeys:      r.ConfigKeys(),
		Order:           r.Order(),
	}
	if u, ok := r.(interface{ Unwrap() RuleDef }); ok {
		def := u.Unwrap()
		info.Rationale = def.Rationale
		info.Fix = def.Fix
	}
	return info
}
