package config

import (
	"time"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Default configuration values.
const (
	DefaultRulesPath        = "config/rules.yml"
	DefaultYearsThreshold   = 3
	DefaultRequireNumbering = true
	DefaultLLMTemperature   = 0.1
	DefaultLLMMaxTokens     = 800
	DefaultLLMTimeout       = 60 * time.Second
)

// ruleDefaults seeds the koanf instance before a rule file is layered on top.
// Only scalar settings have defaults; lists and maps come from the file.
func ruleDefaults() map[string]interface{} {
	return map[string]interface{}{
		"stale_reference.years_threshold":  DefaultYearsThreshold,
		"numbered_steps.require_numbering": DefaultRequireNumbering,
		"llm.enabled":                      false,
		"llm.temperature":                  DefaultLLMTemperature,
		"llm.max_tokens":                   DefaultLLMMaxTokens,
		"llm.timeout":                      DefaultLLMTimeout.String(),
	}
}

// DefaultRules returns the built-in rule set written by "leapcheck rules init".
func DefaultRules() *core.Rules {
	return &core.Rules{
		RequiredSections: []string{
			"Purpose",
			"Scope",
			"Responsibilities",
			"Procedure",
			"References",
			"Approvals",
		},
		ApprovalsLines: []string{
			"Prepared by",
			"Reviewed by",
			"Approved by",
		},
		PlaceholderPatterns: []string{
			`\bTBD\b`,
			`\bTBC\b`,
			`\bXXX+\b`,
			`\[(insert|enter)[^\]]*\]`,
			`\b_{3,}\b`,
			`\bN/?A\b`,
		},
		StaleReference: core.StaleReferenceConfig{YearsThreshold: DefaultYearsThreshold},
		NumberedSteps:  core.NumberedStepsConfig{RequireNumbering: DefaultRequireNumbering},
		SeverityWeights: map[string]int{
			"critical": 1,
			"major":    1,
			"minor":    1,
		},
		IDPenalties: map[string]int{},
		LLM: core.LLMConfig{
			Enabled:     false,
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: DefaultLLMTemperature,
			MaxTokens:   DefaultLLMMaxTokens,
			Timeout:     DefaultLLMTimeout,
		},
	}
}
