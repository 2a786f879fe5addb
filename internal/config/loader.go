// Package config loads the rule configuration that drives the detectors.
//
// Rule files are YAML documents layered over built-in scalar defaults with
// koanf. They are kept apart from the CLI application config so that the
// server and library callers can load rules without any CLI state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// ConfigFileName is the name of the application config file.
const ConfigFileName = "leapcheck.yaml"

// ConfigFileNameAlt is the alternate name of the application config file.
const ConfigFileNameAlt = "leapcheck.yml"

// ErrRulesNotFound is returned when no rule file exists at any candidate path.
var ErrRulesNotFound = errors.New("rules file not found")

// RulesError reports a rule file that exists but cannot be used.
type RulesError struct {
	Path string
	Err  error
}

func (e *RulesError) Error() string {
	return fmt.Sprintf("invalid rules file %s: %v", e.Path, e.Err)
}

func (e *RulesError) Unwrap() error { return e.Err }

// ResolveRulesPath finds the rule file to load.
// Priority:
//  1. path as given (absolute, or relative to the working directory)
//  2. path relative to projectRoot
//  3. config/rules.yml under projectRoot
//  4. config/rules.yml under the working directory
//
// An empty path starts the search at config/rules.yml.
func ResolveRulesPath(path, projectRoot string) (string, error) {
	if path == "" {
		path = DefaultRulesPath
	}

	var candidates []string
	candidates = append(candidates, path)
	if !filepath.IsAbs(path) && projectRoot != "" {
		candidates = append(candidates, filepath.Join(projectRoot, path))
	}
	if projectRoot != "" {
		candidates = append(candidates, filepath.Join(projectRoot, DefaultRulesPath))
	}
	candidates = append(candidates, DefaultRulesPath)

	var tried []string
	seen := make(map[string]bool)
	for _, c := range candidates {
		c = filepath.Clean(c)
		if seen[c] {
			continue
		}
		seen[c] = true
		tried = append(tried, c)
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w; tried: %s", ErrRulesNotFound, strings.Join(tried, ", "))
}

// LoadRules resolves and loads a rule file.
func LoadRules(path, projectRoot string) (*core.Rules, error) {
	resolved, err := ResolveRulesPath(path, projectRoot)
	if err != nil {
		return nil, err
	}
	return LoadRulesFile(resolved)
}

// LoadRulesFile loads the rule file at exactly path.
func LoadRulesFile(path string) (*core.Rules, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(ruleDefaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load rule defaults: %w", err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w; tried: %s", ErrRulesNotFound, path)
		}
		return nil, &RulesError{Path: path, Err: err}
	}

	var rules core.Rules
	if err := k.UnmarshalWithConf("", &rules, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &rules,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, &RulesError{Path: path, Err: err}
	}

	if err := normalizeRules(&rules); err != nil {
		return nil, &RulesError{Path: path, Err: err}
	}
	return &rules, nil
}

// normalizeRules validates decoded rules and canonicalizes keys.
func normalizeRules(r *core.Rules) error {
	if r.StaleReference.YearsThreshold < 0 {
		return fmt.Errorf("stale_reference.years_threshold must not be negative, got %d", r.StaleReference.YearsThreshold)
	}
	if r.LLM.MaxTokens < 0 {
		return fmt.Errorf("llm.max_tokens must not be negative, got %d", r.LLM.MaxTokens)
	}

	if r.SeverityWeights != nil {
		weights := make(map[string]int, len(r.SeverityWeights))
		for k, v := range r.SeverityWeights {
			weights[strings.ToLower(strings.TrimSpace(k))] = v
		}
		r.SeverityWeights = weights
	}

	r.LLM.Provider = strings.ToLower(strings.TrimSpace(r.LLM.Provider))
	r.LLM.Endpoint = ExpandEnvVars(r.LLM.Endpoint)
	r.LLM.Deployment = ExpandEnvVars(r.LLM.Deployment)
	r.LLM.Model = ExpandEnvVars(r.LLM.Model)
	r.LLM.APIVersion = ExpandEnvVars(r.LLM.APIVersion)
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ExpandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left as written.
func ExpandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}

// findConfigFile finds the application config file in the given directory.
// Returns empty string if not found.
func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// FindConfigFile returns the leapcheck config file in dir, if any.
func FindConfigFile(dir string) string {
	return findConfigFile(dir)
}

// FindProjectRoot walks up from startDir to the first directory holding a
// leapcheck config file or a config/rules.yml.
// Returns empty string if not found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		if findConfigFile(dir) != "" {
			return dir
		}
		if _, err := os.Stat(filepath.Join(dir, DefaultRulesPath)); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}
