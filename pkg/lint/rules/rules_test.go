package rules_test

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
	"github.com/leapstack-labs/leapcheck/pkg/lint/rules"
)

var referenceDate = time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)

func newContext(text string, r *core.Rules) *lint.Context {
	return &lint.Context{
		Text:   text,
		Rules:  r,
		Now:    referenceDate,
		Logger: slog.New(slog.DiscardHandler),
	}
}

func TestRegisteredInCanonicalOrder(t *testing.T) {
	var ids []core.FindingID
	for _, def := range lint.GetAll() {
		ids = append(ids, def.ID)
	}
	assert.Equal(t, []core.FindingID{
		core.FindingMissingSection,
		core.FindingMissingApproval,
		core.FindingPlaceholder,
		core.FindingStaleReference,
		core.FindingStepsNumbering,
	}, ids)

	for _, def := range lint.GetAll() {
		assert.NotEmpty(t, def.Fix, def.ID)
		assert.NotEmpty(t, def.Description, def.ID)
	}
}

func TestRequiredSections(t *testing.T) {
	r := &core.Rules{RequiredSections: []string{"Scope", "Procedure"}}

	findings := rules.RequiredSections.Check(newContext("1. SCOPE\nApplies to all sites.", r))
	require.Len(t, findings, 1)
	assert.Equal(t, core.FindingMissingSection, findings[0].ID)
	assert.Equal(t, core.SeverityCritical, findings[0].Severity)
	assert.Equal(t, "Missing section: Procedure", findings[0].Message)
	assert.Nil(t, findings[0].Pos)
	assert.Nil(t, findings[0].Location)

	assert.Empty(t, rules.RequiredSections.Check(newContext("scope ... procedure", r)))
	assert.Len(t, rules.RequiredSections.Check(newContext("", r)), 2)
}

func TestApprovalLines(t *testing.T) {
	r := &core.Rules{ApprovalsLines: []string{"Approved by", "Reviewed by"}}

	findings := rules.ApprovalLines.Check(newContext("APPROVED BY: Jane Doe", r))
	require.Len(t, findings, 1)
	assert.Equal(t, core.FindingMissingApproval, findings[0].ID)
	assert.Equal(t, core.SeverityCritical, findings[0].Severity)
	assert.Equal(t, "Missing approval line: Reviewed by", findings[0].Message)
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		patterns []string
		want     []string
	}{
		{
			name:     "signature blank suppressed",
			text:     "Approved by: __________",
			patterns: []string{`\b_+\b`},
			want:     nil,
		},
		{
			name:     "signature keyword suppresses",
			text:     "Signature ________ Date ________",
			patterns: []string{`\b_+\b`},
			want:     nil,
		},
		{
			name:     "blank without sign-off context",
			text:     "Batch number: ______",
			patterns: []string{`\b_+\b`},
			want:     []string{"Placeholder detected: '______'"},
		},
		{
			name:     "TBD",
			text:     "Value: TBD",
			patterns: []string{`\bTBD\b`},
			want:     []string{"Placeholder detected: 'TBD'"},
		},
		{
			name:     "case insensitive",
			text:     "Owner: tbd",
			patterns: []string{`\bTBD\b`},
			want:     []string{"Placeholder detected: 'tbd'"},
		},
		{
			name:     "N/A pattern skipped",
			text:     "Column: N/A",
			patterns: []string{` \bN/?A\b `},
			want:     nil,
		},
		{
			name:     "invalid pattern skipped",
			text:     "Value: XXX",
			patterns: []string{`([`, `\bX{3}\b`},
			want:     []string{"Placeholder detected: 'XXX'"},
		},
		{
			name:     "pattern order then text order",
			text:     "A: XXX, B: TBD, C: TBD",
			patterns: []string{`\bTBD\b`, `\bX{3}\b`},
			want: []string{
				"Placeholder detected: 'TBD'",
				"Placeholder detected: 'TBD'",
				"Placeholder detected: 'XXX'",
			},
		},
		{
			name:     "empty matches ignored",
			text:     "nothing here",
			patterns: []string{`x*`},
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := rules.Placeholders.Check(newContext(tt.text, &core.Rules{PlaceholderPatterns: tt.patterns}))
			var got []string
			for _, f := range findings {
				got = append(got, f.Message)
				assert.Equal(t, core.FindingPlaceholder, f.ID)
				assert.Equal(t, core.SeverityMajor, f.Severity)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlaceholders_PositionAndLocation(t *testing.T) {
	text := "Purpose\nThis SOP is TBD.\n"
	findings := rules.Placeholders.Check(newContext(text, &core.Rules{PlaceholderPatterns: []string{`\bTBD\b`}}))
	require.Len(t, findings, 1)

	f := findings[0]
	require.NotNil(t, f.Pos)
	assert.Equal(t, "TBD", text[f.Pos.Start:f.Pos.End])
	assert.Equal(t, "Purpose This SOP is TBD.", f.LocationText())
}

func TestStaleReferences(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		threshold int
		want      []string
	}{
		{
			name:      "effective date",
			text:      "Effective date: 2015-01-01",
			threshold: 3,
			want:      []string{"Stale date/reference: 2015 (~11.8y)"},
		},
		{
			name:      "citation year without revision wording",
			text:      "ISO 9001:2015 citation",
			threshold: 3,
			want:      nil,
		},
		{
			name:      "recent date",
			text:      "Effective date: 2025-06-01",
			threshold: 3,
			want:      nil,
		},
		{
			name:      "age within threshold",
			text:      "Version 2 issued 2023",
			threshold: 4,
			want:      nil,
		},
		{
			name:      "revision table collapses by label",
			text:      "Version 1.0 2010\nVersion 2.0 2012\nVersion 3.0 2014",
			threshold: 3,
			want:      []string{"Stale date/reference: 2010 (~16.8y)"},
		},
		{
			name: "distinct labels reported separately",
			text: "Effective date: 2010\n" + strings.Repeat("filler text ", 10) +
				"\nLast reviewed: 2012",
			threshold: 3,
			want: []string{
				"Stale date/reference: 2010 (~16.8y)",
				"Stale date/reference: 2012 (~14.8y)",
			},
		},
		{
			name:      "revision keyword is case insensitive",
			text:      "REV 4 dated 2012",
			threshold: 3,
			want:      []string{"Stale date/reference: 2012 (~14.8y)"},
		},
		{
			name:      "review is not rev",
			text:      "Scheduled review 2012",
			threshold: 3,
			want:      nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &core.Rules{StaleReference: core.StaleReferenceConfig{YearsThreshold: tt.threshold}}
			findings := rules.StaleReferences.Check(newContext(tt.text, r))
			var got []string
			for _, f := range findings {
				got = append(got, f.Message)
				assert.Equal(t, core.FindingStaleReference, f.ID)
				assert.Equal(t, core.SeverityMinor, f.Severity)
				require.NotNil(t, f.Pos)
				assert.NotEmpty(t, f.LocationText())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumberedSteps(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		require bool
		want    bool
	}{
		{
			name:    "numbered steps",
			text:    "Procedure\n1. Weigh the sample.\n2. Record the weight.",
			require: true,
		},
		{
			name:    "parenthesised and step prefixes",
			text:    "PROCEDURE\n1) Mix\nStep 2 Pour\nstep3 Seal",
			require: true,
		},
		{
			name:    "prose procedure",
			text:    "Procedure\nWeigh the sample.\nRecord the weight.",
			require: true,
			want:    true,
		},
		{
			name:    "single step is not enough",
			text:    "Procedure\n1. Do everything.",
			require: true,
			want:    true,
		},
		{
			name:    "no procedure keyword",
			text:    "Purpose\nThis SOP is TBD.",
			require: true,
		},
		{
			name:    "numbering not required",
			text:    "Procedure\nWeigh the sample.",
			require: false,
		},
		{
			name: "steps beyond the window are not counted",
			text: "Procedure\n" + strings.Repeat("Background prose line.\n", 200) +
				"1. First\n2. Second\n",
			require: true,
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &core.Rules{NumberedSteps: core.NumberedStepsConfig{RequireNumbering: tt.require}}
			findings := rules.NumberedSteps.Check(newContext(tt.text, r))
			if !tt.want {
				assert.Empty(t, findings)
				return
			}
			require.Len(t, findings, 1)
			assert.Equal(t, core.FindingStepsNumbering, findings[0].ID)
			assert.Equal(t, core.SeverityMajor, findings[0].Severity)
			assert.Equal(t, "Procedure lacks sufficient numbered steps", findings[0].Message)
		})
	}
}
