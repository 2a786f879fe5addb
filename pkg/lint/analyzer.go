package lint

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Analyzer runs lint rules against document text.
type Analyzer struct {
	config *Config
	rules  []Rule // nil = global registry
}

// NewAnalyzer creates an analyzer over the global registry.
func NewAnalyzer(config *Config) *Analyzer {
	if config == nil {
		config = NewConfig()
	}
	return &Analyzer{config: config}
}

// NewAnalyzerWithRules creates an analyzer over an explicit rule set.
// Rules are still emitted in ascending Order.
func NewAnalyzerWithRules(config *Config, rules []Rule) *Analyzer {
	a := NewAnalyzer(config)
	a.rules = sortRules(rules)
	return a
}

// Rules returns the rules this analyzer would run, before disabling.
func (a *Analyzer) Rules() []Rule {
	if a.rules != nil {
		return a.rules
	}
	return AllRules()
}

// Analyze runs every enabled rule and returns their findings concatenated in
// canonical order. Rules run concurrently; a panicking rule contributes no
// findings. The only error is cancellation of ctx.
func (a *Analyzer) Analyze(ctx context.Context, lctx *Context) ([]core.Finding, error) {
	run := normalizeContext(lctx)

	var enabled []Rule
	for _, rule := range a.Rules() {
		if a.config.IsDisabled(rule.ID()) || run.Rules.IsDisabled(rule.ID()) {
			run.Logger.Debug("rule disabled", "rule", rule.ID())
			continue
		}
		enabled = append(enabled, rule)
	}

	slots := make([][]core.Finding, len(enabled))
	g, gctx := errgroup.WithContext(ctx)
	for i, rule := range enabled {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = checkRule(rule, run)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	var findings []core.Finding
	for _, found := range slots {
		findings = append(findings, found...)
	}
	return findings, nil
}

func checkRule(rule Rule, lctx *Context) (found []core.Finding) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			lctx.Logger.Warn("rule panicked", "rule", rule.ID(), "panic", r)
			found = nil
		}
	}()
	found = rule.Check(lctx)
	lctx.Logger.Debug("rule checked",
		"rule", rule.ID(),
		"findings", len(found),
		"duration", time.Since(start))
	return found
}

// normalizeContext returns a copy of lctx with defaults filled in.
func normalizeContext(lctx *Context) *Context {
	run := Context{}
	if lctx != nil {
		run = *lctx
	}
	if run.Rules == nil {
		run.Rules = &core.Rules{}
	}
	if run.Now.IsZero() {
		run.Now = time.Now()
	}
	if run.Logger == nil {
		run.Logger = slog.New(slog.DiscardHandler)
	}
	return &run
}

func sortRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order() != out[j].Order() {
			return out[i].Order() < out[j].Order()
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}
