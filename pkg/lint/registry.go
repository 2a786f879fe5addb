package lint

import (
	"sort"
	"sync"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// globalRegistry is the single global registry for all lint rules.
var globalRegistry = &Registry{
	rules: make(map[core.FindingID]RuleDef),
}

// Registry stores registered lint rules for discovery.
type Registry struct {
	mu    sync.RWMutex
	rules map[core.FindingID]RuleDef // keyed by ID
}

// Register adds a rule to the global registry.
// Call this from init() functions in rule packages.
func Register(rule RuleDef) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.rules[rule.ID] = rule
}

// GetAll returns all registered rules in canonical order.
func GetAll() []RuleDef {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	rules := make([]RuleDef, 0, len(globalRegistry.rules))
	for _, rule := range globalRegistry.rules {
		rules = append(rules, rule)
	}
	sortRuleDefs(rules)
	return rules
}

// AllRules returns every registered rule wrapped as a Rule, in canonical order.
func AllRules() []Rule {
	defs := GetAll()
	rules := make([]Rule, len(defs))
	for i, def := range defs {
		rules[i] = WrapRuleDef(def)
	}
	return rules
}

// GetByID returns a rule by its ID.
func GetByID(id core.FindingID) (RuleDef, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	rule, ok := globalRegistry.rules[id]
	return rule, ok
}

// GetByGroup returns all rules in a specific group.
func GetByGroup(group string) []RuleDef {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	var rules []RuleDef
	for _, rule := range globalRegistry.rules {
		if rule.Group == group {
			rules = append(rules, rule)
		}
	}
	sortRuleDefs(rules)
	return rules
}

// DefaultFix is the remediation advice for findings no rule describes.
const DefaultFix = "Review and remediate."

// FixFor returns the remediation advice of the rule that emits id.
func FixFor(id core.FindingID) string {
	if rule, ok := GetByID(id); ok && rule.Fix != "" {
		return rule.Fix
	}
	return DefaultFix
}

// Count returns the number of registered rules.
func Count() int {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	return len(globalRegistry.rules)
}

// Clear removes all registered rules. Used for testing.
func Clear() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.rules = make(map[core.FindingID]RuleDef)
}

func sortRuleDefs(rules []RuleDef) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Order != rules[j].Order {
			return rules[i].Order < rules[j].Order
		}
		return rules[i].ID < rules[j].ID
	})
}
