package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/cli/config"
	"github.com/leapstack-labs/leapcheck/internal/cli/output"
	intconfig "github.com/leapstack-labs/leapcheck/internal/config"
	"github.com/leapstack-labs/leapcheck/internal/kb"
	"github.com/leapstack-labs/leapcheck/internal/llm"
	"github.com/leapstack-labs/leapcheck/internal/state"
	"github.com/leapstack-labs/leapcheck/internal/validate"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// SetFormat replaces the renderer when a --format flag was given.
func (c *CommandContext) SetFormat(cmd *cobra.Command, format string) error {
	if format == "" {
		return nil
	}
	mode, err := output.ParseMode(format)
	if err != nil {
		return err
	}
	c.Renderer = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)
	return nil
}

// LoadRules loads the configured rule file.
func (c *CommandContext) LoadRules() (*core.Rules, error) {
	rules, err := intconfig.LoadRules(c.Cfg.RulesPath, c.Cfg.ProjectRoot)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("rules loaded", "path", c.Cfg.RulesPath, "required_sections", len(rules.RequiredSections))
	return rules, nil
}

// OpenStore opens the embedding cache. A cache that cannot be opened is
// logged and skipped; the returned store is then nil.
func (c *CommandContext) OpenStore() (state.Store, func()) {
	path := c.Cfg.KBCache
	if path == "" {
		return nil, func() {}
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				c.Logger.Warn("failed to create kb cache directory, continuing without cache", "path", dir, "error", err)
				return nil, func() {}
			}
		}
	}
	store, err := state.Open(path)
	if err != nil {
		c.Logger.Warn("failed to open kb cache, continuing without cache", "path", path, "error", err)
		return nil, func() {}
	}
	return store, func() { _ = store.Close() }
}

// NewLoader returns a guideline loader using the configured embedder,
// cached in store when store is non-nil.
func (c *CommandContext) NewLoader(store state.Store) *kb.Loader {
	embedder := kb.NewEmbedder(c.Cfg.Embeddings, c.Logger)
	if store != nil {
		embedder = kb.NewCachedEmbedder(embedder, store, c.Logger)
	}
	return &kb.Loader{Embedder: embedder, Store: store, Logger: c.Logger}
}

// LoadKB indexes the configured guideline files. The returned cleanup
// closes the embedding cache and must be called (typically via defer).
func (c *CommandContext) LoadKB(ctx context.Context) (*kb.KB, func(), error) {
	store, closeStore := c.OpenStore()
	k, err := c.NewLoader(store).Load(ctx, c.Cfg.GuidelinePaths())
	if err != nil {
		closeStore()
		return nil, nil, fmt.Errorf("failed to load guidelines: %w", err)
	}
	return k, closeStore, nil
}

// NewValidator builds a validator for rules. searcher may be nil.
func (c *CommandContext) NewValidator(rules *core.Rules, searcher kb.Searcher) (*validate.Validator, error) {
	return validate.New(validate.Config{
		Rules:     rules,
		KB:        searcher,
		Augmenter: llm.New(rules.LLM, c.Logger),
		Logger:    c.Logger,
	})
}

// getConfig returns the current configuration, or the defaults anchored at
// the working directory when no config was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	cfg := config.DefaultConfig()
	cwd, _ := os.Getwd()
	if cwd == "" {
		cwd = "."
	}
	cfg.ProjectRoot = cwd
	return cfg
}
