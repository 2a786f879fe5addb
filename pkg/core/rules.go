package core

import "time"

// Rules is the externally supplied rule configuration.
// The validation core only reads it; callers that need to tweak a loaded
// rule set should work on a Clone.
type Rules struct {
	RequiredSections    []string             `koanf:"required_sections" yaml:"required_sections"`
	ApprovalsLines      []string             `koanf:"approvals_lines" yaml:"approvals_lines"`
	PlaceholderPatterns []string             `koanf:"placeholder_patterns" yaml:"placeholder_patterns"`
	StaleReference      StaleReferenceConfig `koanf:"stale_reference" yaml:"stale_reference"`
	NumberedSteps       NumberedStepsConfig  `koanf:"numbered_steps" yaml:"numbered_steps"`
	SeverityWeights     map[string]int       `koanf:"severity_weights" yaml:"severity_weights"`
	IDPenalties         map[string]int       `koanf:"id_penalties" yaml:"id_penalties"`
	Disabled            []string             `koanf:"disabled" yaml:"disabled,omitempty"`
	LLM                 LLMConfig            `koanf:"llm" yaml:"llm"`
}

// StaleReferenceConfig configures the stale date detector.
type StaleReferenceConfig struct {
	YearsThreshold int `koanf:"years_threshold" yaml:"years_threshold"`
}

// NumberedStepsConfig configures the procedure numbering detector.
type NumberedStepsConfig struct {
	RequireNumbering bool `koanf:"require_numbering" yaml:"require_numbering"`
}

// LLMConfig configures the optional LLM augmentation.
type LLMConfig struct {
	Enabled     bool          `koanf:"enabled" yaml:"enabled"`
	Provider    string        `koanf:"provider" yaml:"provider,omitempty"`       // openai, azure
	Model       string        `koanf:"model" yaml:"model,omitempty"`             // OpenAI model name
	Deployment  string        `koanf:"deployment" yaml:"deployment,omitempty"`   // Azure deployment name
	Endpoint    string        `koanf:"endpoint" yaml:"endpoint,omitempty"`       // Azure endpoint or OpenAI base URL
	APIVersion  string        `koanf:"api_version" yaml:"api_version,omitempty"` // Azure API version
	Temperature float64       `koanf:"temperature" yaml:"temperature"`
	MaxTokens   int           `koanf:"max_tokens" yaml:"max_tokens"`
	Timeout     time.Duration `koanf:"timeout" yaml:"-"`
}

// MarshalYAML writes the timeout as a duration string so that rule files
// round-trip through the loader.
func (c LLMConfig) MarshalYAML() (interface{}, error) {
	type plain LLMConfig
	out := struct {
		plain   `yaml:",inline"`
		Timeout string `yaml:"timeout,omitempty"`
	}{plain: plain(c)}
	if c.Timeout > 0 {
		out.Timeout = c.Timeout.String()
	}
	return out, nil
}

// IsDisabled reports whether a detector was switched off in the rule file.
func (r *Rules) IsDisabled(id FindingID) bool {
	if r == nil {
		return false
	}
	for _, d := range r.Disabled {
		if FindingID(d) == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the rules.
func (r *Rules) Clone() *Rules {
	if r == nil {
		return nil
	}
	c := *r
	c.RequiredSections = append([]string(nil), r.RequiredSections...)
	c.ApprovalsLines = append([]string(nil), r.ApprovalsLines...)
	c.PlaceholderPatterns = append([]string(nil), r.PlaceholderPatterns...)
	c.Disabled = append([]string(nil), r.Disabled...)
	c.SeverityWeights = copyIntMap(r.SeverityWeights)
	c.IDPenalties = copyIntMap(r.IDPenalties)
	return &c
}

func copyIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
