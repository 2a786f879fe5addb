// Package validate turns document text into a scored compliance assessment.
//
// A run executes the registered detectors in canonical order, appends model
// findings from the optional LLM augmenter, attaches knowledge base
// citations, attributes every finding to a document section and computes
// the score. Collaborator failures degrade to missing citations or missing
// model findings; only a missing rule configuration is an error.
package validate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapcheck/internal/kb"
	"github.com/leapstack-labs/leapcheck/internal/llm"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
	_ "github.com/leapstack-labs/leapcheck/pkg/lint/rules" // registers detectors
	"github.com/leapstack-labs/leapcheck/pkg/score"
	"github.com/leapstack-labs/leapcheck/pkg/section"
)

// ErrNoRules is returned when a validator has no rule configuration.
var ErrNoRules = errors.New("no rule configuration")

// Config holds validator dependencies.
type Config struct {
	// Rules is the rule configuration. Required; never modified.
	Rules *core.Rules
	// KB supplies citations. Optional. A failed lookup leaves every finding uncited.
	KB kb.Searcher
	// Augmenter supplies model findings. Optional.
	Augmenter llm.Augmenter
	// Analyzer runs the detectors. Defaults to the global registry.
	Analyzer *lint.Analyzer
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
	// Now is the clock used for date arithmetic. Defaults to time.Now.
	Now func() time.Time
}

// Validator runs the validation pipeline. It is safe for concurrent use.
type Validator struct {
	rules     *core.Rules
	kb        kb.Searcher
	augmenter llm.Augmenter
	analyzer  *lint.Analyzer
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a validator.
func New(cfg Config) (*Validator, error) {
	if cfg.Rules == nil {
		return nil, ErrNoRules
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	analyzer := cfg.Analyzer
	if analyzer == nil {
		analyzer = lint.NewAnalyzer(nil)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	augmenter := cfg.Augmenter
	if augmenter == nil {
		augmenter = llm.Disabled{}
	}
	return &Validator{
		rules:     cfg.Rules,
		kb:        cfg.KB,
		augmenter: augmenter,
		analyzer:  analyzer,
		logger:    logger,
		now:       now,
	}, nil
}

// Rules returns the rule configuration the validator was built with.
func (v *Validator) Rules() *core.Rules {
	return v.rules
}

// Validate assesses text. meta is copied into the result unchanged.
// The only error is cancellation of ctx.
func (v *Validator) Validate(ctx context.Context, text string, meta map[string]string) (*core.ValidationResult, error) {
	start := time.Now()

	findings, err := v.analyzer.Analyze(ctx, &lint.Context{
		Text:   text,
		Rules:  v.rules,
		Now:    v.now(),
		Logger: v.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	findings = append(findings, v.augment(ctx, text)...)
	findings, err = attachCitations(ctx, findings, v.kb)
	if err != nil {
		v.logger.Warn("knowledge base lookup failed, findings left uncited", "error", err)
	}
	findings = MapSections(findings, section.Split(text))
	if findings == nil {
		findings = []core.Finding{}
	}

	result := &core.ValidationResult{
		Findings: findings,
		Score:    score.Compute(findings, v.rules.SeverityWeights, v.rules.IDPenalties),
		Meta:     core.CopyMeta(meta),
	}

	v.logger.Debug("document validated",
		"findings", len(result.Findings),
		"score", result.Score,
		"duration", time.Since(start))
	return result, nil
}

func (v *Validator) augment(ctx context.Context, text string) (found []core.Finding) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Warn("llm augmentation panicked", "panic", r)
			found = nil
		}
	}()
	return v.augmenter.Augment(ctx, text)
}

// Validate runs a one-off validation with the detectors from the global
// registry. The LLM augmenter is built from rules.LLM and process
// credentials; searcher may be nil.
func Validate(ctx context.Context, text string, meta map[string]string, rules *core.Rules, searcher kb.Searcher) (*core.ValidationResult, error) {
	if rules == nil {
		return nil, ErrNoRules
	}
	v, err := New(Config{
		Rules:     rules,
		KB:        searcher,
		Augmenter: llm.New(rules.LLM, nil),
	})
	if err != nil {
		return nil, err
	}
	return v.Validate(ctx, text, meta)
}
