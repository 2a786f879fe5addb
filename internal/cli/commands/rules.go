package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapcheck/internal/cli/output"
	intconfig "github.com/leapstack-labs/leapcheck/internal/config"
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
	_ "github.com/leapstack-labs/leapcheck/pkg/lint/rules" // register detectors
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Group   string // Filter by group
	Verbose bool   // Show full documentation
	Format  string // Output format
}

// RulesInitOptions holds options for the rules init command.
type RulesInitOptions struct {
	Path  string
	Force bool
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List the compliance rules",
		Long: `List the compliance rules with their documentation.

Rules are organized by group (structure, approvals, content, currency,
procedure). Use --verbose to see the rationale and remediation advice.
Rules listed under "disabled" in the rule file are marked.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # List all rules
  leapcheck rules

  # Show details for a specific rule
  leapcheck rules placeholder

  # Show full documentation
  leapcheck rules -V

  # Write the default rule file
  leapcheck rules init`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0], opts)
			}
			return listRules(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")
	cmd.Flags().StringVarP(&opts.Group, "group", "g", "", "Filter by group")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "V", false, "Show full documentation")

	cmd.AddCommand(newRulesListCommand(opts))
	cmd.AddCommand(newRulesInitCommand())

	return cmd
}

func newRulesListCommand(opts *RulesOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the compliance rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listRules(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Group, "group", "g", "", "Filter by group")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "V", false, "Show full documentation")
	return cmd
}

func newRulesInitCommand() *cobra.Command {
	opts := &RulesInitOptions{}
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the built-in rule file",
		Long: `Write the built-in rule set as YAML, by default to config/rules.yml
under the project root. Edit the file to change required sections, approval
labels, placeholder patterns, weights and the LLM settings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Path = args[0]
			}
			return runRulesInit(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing file")
	return cmd
}

// ruleEntry is a rule with its status under the loaded rule file.
type ruleEntry struct {
	core.RuleInfo
	Disabled bool `json:"disabled"`
}

func loadRuleEntries(cmdCtx *CommandContext, group string) []ruleEntry {
	// The rule file only marks disabled rules; listing works without one.
	rules, err := cmdCtx.LoadRules()
	if err != nil {
		cmdCtx.Logger.Debug("listing rules without a rule file", "error", err)
	}

	var entries []ruleEntry
	for _, rule := range lint.AllRules() {
		info := lint.GetRuleInfo(rule)
		if group != "" && info.Group != group {
			continue
		}
		entries = append(entries, ruleEntry{RuleInfo: info, Disabled: rules.IsDisabled(info.ID)})
	}
	return entries
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx := NewCommandContext(cmd)
	if err := cmdCtx.SetFormat(cmd, opts.Format); err != nil {
		return err
	}
	r := cmdCtx.Renderer

	entries := loadRuleEntries(cmdCtx, opts.Group)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return listRulesJSON(r, entries)
	case output.ModeMarkdown:
		return listRulesMarkdown(r, entries, opts.Verbose)
	default:
		return listRulesText(r, entries, opts.Verbose)
	}
}

func showRule(cmd *cobra.Command, ruleID string, opts *RulesOptions) error {
	cmdCtx := NewCommandContext(cmd)
	if err := cmdCtx.SetFormat(cmd, opts.Format); err != nil {
		return err
	}
	r := cmdCtx.Renderer

	var rule *ruleEntry
	for _, e := range loadRuleEntries(cmdCtx, "") {
		if string(e.ID) == ruleID || e.Name == ruleID {
			rule = &e
			break
		}
	}
	if rule == nil {
		return fmt.Errorf("rule %q not found", ruleID)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(rule)
	case output.ModeMarkdown:
		return showRuleMarkdown(r, rule)
	default:
		return showRuleText(r, rule)
	}
}

// listRulesText outputs rules in styled text format.
func listRulesText(r *output.Renderer, rules []ruleEntry, verbose bool) error {
	styles := r.Styles()
	titleCaser := cases.Title(language.English)

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Compliance Rules (%d)", len(rules))))
	r.Println("")

	currentGroup := ""
	for _, rule := range rules {
		if rule.Group != currentGroup {
			currentGroup = rule.Group
			r.Println(styles.Bold.Render("  " + titleCaser.String(currentGroup)))
		}

		status := ""
		if rule.Disabled {
			status = " " + styles.Muted.Render("(disabled)")
		}
		r.Printf("    %s  %s - %s%s\n",
			styles.Muted.Render(string(rule.ID)),
			rule.Name,
			styles.Severity(rule.DefaultSeverity.String()).Render(rule.DefaultSeverity.String()),
			status,
		)

		if verbose {
			r.Println(styles.Muted.Render("        " + rule.Description))
			if rule.Rationale != "" {
				r.Println(styles.Muted.Render("        Why: " + truncate(rule.Rationale, 80)))
			}
			if rule.Fix != "" {
				r.Println(styles.Muted.Render("        Fix: " + rule.Fix))
			}
			r.Println("")
		}
	}

	r.Println("")
	r.Println(styles.Muted.Render("Use 'leapcheck rules <rule-id>' for detailed documentation"))
	r.Println("")

	return nil
}

// listRulesMarkdown outputs rules in markdown format.
func listRulesMarkdown(r *output.Renderer, rules []ruleEntry, verbose bool) error {
	titleCaser := cases.Title(language.English)

	r.Println(output.FormatHeader(1, "Compliance Rules"))
	r.Println("")

	currentGroup := ""
	for _, rule := range rules {
		if rule.Group != currentGroup {
			currentGroup = rule.Group
			r.Println(output.FormatHeader(2, titleCaser.String(currentGroup)))
			r.Println("")
		}

		status := ""
		if rule.Disabled {
			status = " _disabled_"
		}
		r.Printf("- **%s** - %s (`%s`)%s\n", rule.ID, rule.Name, rule.DefaultSeverity.String(), status)
		if verbose {
			r.Println("  " + rule.Description)
			if rule.Rationale != "" {
				r.Println("  > " + rule.Rationale)
			}
		}
	}

	r.Println("")
	return nil
}

// RulesJSONOutput is the JSON output structure for rules listing.
type RulesJSONOutput struct {
	Rules []ruleEntry `json:"rules"`
	Count struct {
		Enabled  int `json:"enabled"`
		Disabled int `json:"disabled"`
		Total    int `json:"total"`
	} `json:"count"`
}

// listRulesJSON outputs rules in JSON format.
func listRulesJSON(r *output.Renderer, rules []ruleEntry) error {
	jsonOutput := RulesJSONOutput{Rules: rules}
	if jsonOutput.Rules == nil {
		jsonOutput.Rules = []ruleEntry{}
	}
	for _, rule := range rules {
		if rule.Disabled {
			jsonOutput.Count.Disabled++
		} else {
			jsonOutput.Count.Enabled++
		}
	}
	jsonOutput.Count.Total = len(rules)
	return r.JSON(jsonOutput)
}

// showRuleText displays detailed rule info in text format.
func showRuleText(r *output.Renderer, rule *ruleEntry) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("%s - %s", rule.ID, rule.Name)))
	r.Println("")

	r.Printf("  %s: %s\n", styles.Bold.Render("Group"), rule.Group)
	r.Printf("  %s: %s\n", styles.Bold.Render("Severity"), rule.DefaultSeverity.String())
	if rule.Disabled {
		r.Printf("  %s: %s\n", styles.Bold.Render("Status"), "disabled")
	}
	r.Println("")

	r.Println(styles.Bold.Render("Description"))
	r.Println("  " + rule.Description)
	r.Println("")

	if rule.Rationale != "" {
		r.Println(styles.Bold.Render("Why This Matters"))
		r.Println("  " + rule.Rationale)
		r.Println("")
	}

	if rule.Fix != "" {
		r.Println(styles.Bold.Render("How to Fix"))
		r.Println("  " + rule.Fix)
		r.Println("")
	}

	if len(rule.ConfigKeys) > 0 {
		r.Println(styles.Bold.Render("Configuration"))
		r.Printf("  Options: %s\n", strings.Join(rule.ConfigKeys, ", "))
		r.Println("")
	}

	return nil
}

// showRuleMarkdown displays detailed rule info in markdown format.
func showRuleMarkdown(r *output.Renderer, rule *ruleEntry) error {
	r.Printf("# %s - %s\n\n", rule.ID, rule.Name)
	r.Printf("**Group:** %s | **Severity:** `%s`\n\n", rule.Group, rule.DefaultSeverity.String())
	r.Println(rule.Description)
	r.Println("")

	if rule.Rationale != "" {
		r.Println("## Why This Matters")
		r.Println("")
		r.Println(rule.Rationale)
		r.Println("")
	}

	if rule.Fix != "" {
		r.Println("## How to Fix")
		r.Println("")
		r.Println(rule.Fix)
		r.Println("")
	}

	if len(rule.ConfigKeys) > 0 {
		r.Println("## Configuration")
		r.Println("")
		r.Printf("Options: `%s`\n", strings.Join(rule.ConfigKeys, "`, `"))
		r.Println("")
	}

	return nil
}

func runRulesInit(cmd *cobra.Command, opts *RulesInitOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	path := opts.Path
	if path == "" {
		path = filepath.Join(cmdCtx.Cfg.ProjectRoot, intconfig.DefaultRulesPath)
	}

	if _, err := os.Stat(path); err == nil && !opts.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}

	data, err := yaml.Marshal(intconfig.DefaultRules())
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	cmdCtx.Logger.Debug("rule file written", "path", path)
	r.Success("Wrote " + path)
	return nil
}
