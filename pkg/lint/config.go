package lint

import "github.com/leapstack-labs/leapcheck/pkg/core"

// Config controls which rules are enabled.
type Config struct {
	// DisabledRules contains rule IDs to skip
	DisabledRules map[core.FindingID]bool
}

// NewConfig creates a default configuration with all rules enabled.
func NewConfig() *Config {
	return &Config{
		DisabledRules: make(map[core.FindingID]bool),
	}
}

// IsDisabled returns true if the rule should be skipped.
func (c *Config) IsDisabled(ruleID core.FindingID) bool {
	if c == nil {
		return false
	}
	return c.DisabledRules[ruleID]
}

// Disable disables a rule by ID.
func (c *Config) Disable(ruleID core.FindingID) *Config {
	c.DisabledRules[ruleID] = true
	return c
}

// Enable re-enables a previously disabled rule.
func (c *Config) Enable(ruleID core.FindingID) *Config {
	delete(c.DisabledRules, ruleID)
	return c
}
