package lint_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("a ", 100) + "TBD" + strings.Repeat(" b", 100)
	tbd := strings.Index(long, "TBD")

	tests := []struct {
		name       string
		text       string
		start, end int
		check      func(t *testing.T, got string)
	}{
		{
			name:  "whole text fits",
			text:  "Value: TBD",
			start: 7, end: 10,
			check: func(t *testing.T, got string) {
				assert.Equal(t, "Value: TBD", got)
			},
		},
		{
			name:  "whitespace collapsed",
			text:  "Line one\n\n   TBD\tx  ",
			start: 13, end: 16,
			check: func(t *testing.T, got string) {
				assert.Equal(t, "Line one TBD x", got)
			},
		},
		{
			name:  "truncated both sides",
			text:  long,
			start: tbd, end: tbd + 3,
			check: func(t *testing.T, got string) {
				assert.True(t, strings.HasPrefix(got, "… a "), got)
				assert.True(t, strings.HasSuffix(got, " b …"), got)
				assert.Contains(t, got, "a TBD b")
			},
		},
		{
			name:  "truncated on the left only",
			text:  strings.Repeat("x", 200) + " TBD",
			start: 201, end: 204,
			check: func(t *testing.T, got string) {
				assert.True(t, strings.HasPrefix(got, "… "), got)
				assert.True(t, strings.HasSuffix(got, "TBD"), got)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, lint.Excerpt(tt.text, tt.start, tt.end))
		})
	}
}

func TestBounds_RuneBoundaries(t *testing.T) {
	text := strings.Repeat("é", 60) + "TBD" + strings.Repeat("é", 60)
	start := strings.Index(text, "TBD")

	// An odd radius lands inside a two-byte rune on both sides.
	lo, hi := lint.Bounds(text, start, start+3, 81)
	assert.Equal(t, start-82, lo)
	assert.Equal(t, start+3+82, hi)
	assert.True(t, strings.HasPrefix(text[lo:hi], "é"))
	assert.True(t, strings.HasSuffix(text[lo:hi], "é"))
	assert.Contains(t, lint.Window(text, start, start+3), "TBD")
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", lint.CollapseWhitespace("  a\n\tb   c \n"))
	assert.Equal(t, "", lint.CollapseWhitespace(" \n "))
}
