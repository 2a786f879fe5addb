package lint

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ContextRadius is the number of bytes inspected on each side of a match.
const ContextRadius = 80

// Ellipsis marks an excerpt truncated by the window.
const Ellipsis = "…"

var whitespaceRun = regexp.MustCompile(`\s+`)

// Bounds returns the [lo, hi) window of radius bytes around [start, end),
// clamped to the text and widened to rune boundaries.
func Bounds(text string, start, end, radius int) (lo, hi int) {
	lo = max(0, start-radius)
	hi = min(len(text), end+radius)
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return lo, hi
}

// Window returns the text within ContextRadius of [start, end).
func Window(text string, start, end int) string {
	lo, hi := Bounds(text, start, end, ContextRadius)
	return text[lo:hi]
}

// Excerpt renders the context around [start, end) on a single line.
// Whitespace runs collapse to one space and an ellipsis marks each side
// cut short of the text boundary.
func Excerpt(text string, start, end int) string {
	lo, hi := Bounds(text, start, end, ContextRadius)
	snippet := CollapseWhitespace(text[lo:hi])
	if lo > 0 {
		snippet = Ellipsis + " " + snippet
	}
	if hi < len(text) {
		snippet += " " + Ellipsis
	}
	return snippet
}

// CollapseWhitespace replaces whitespace runs with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
