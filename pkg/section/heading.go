package section

import (
	"regexp"
	"strings"
	"unicode"
)

// vocabulary holds common document-control headings, lower-cased.
var vocabulary = map[string]bool{
	"title":               true,
	"document id":         true,
	"version":             true,
	"effective date":      true,
	"next review date":    true,
	"revision history":    true,
	"introduction":        true,
	"purpose":             true,
	"scope":               true,
	"responsibilities":    true,
	"definitions":         true,
	"procedure":           true,
	"procedures":          true,
	"acceptance criteria": true,
	"documentation":       true,
	"deviations":          true,
	"references":          true,
	"records":             true,
	"approvals":           true,
}

// numberedHeadingRe matches outline numbering such as "1. Scope" or "4.2) Records".
var numberedHeadingRe = regexp.MustCompile(`^\d+(?:\.\d+)*[\)\.]\s+\S`)

// maxUppercaseHeadingWords bounds the uppercase heading heuristic.
const maxUppercaseHeadingWords = 6

// Predicate classifies a trimmed line.
type Predicate func(line string) bool

// headingPredicates are tried in order; the first match wins.
var headingPredicates = []Predicate{
	IsVocabularyHeading,
	IsNumberedHeading,
	IsUppercaseHeading,
}

// IsHeading reports whether line looks like a section heading.
func IsHeading(line string) bool {
	l := strings.TrimSpace(line)
	if l == "" {
		return false
	}
	for _, p := range headingPredicates {
		if p(l) {
			return true
		}
	}
	return false
}

// IsVocabularyHeading matches the fixed heading vocabulary, with or without a trailing colon.
func IsVocabularyHeading(line string) bool {
	l := strings.ToLower(strings.TrimSpace(line))
	if vocabulary[l] {
		return true
	}
	if strings.HasSuffix(l, ":") {
		return vocabulary[strings.TrimSpace(strings.TrimSuffix(l, ":"))]
	}
	return false
}

// IsNumberedHeading matches numbered outline headings.
func IsNumberedHeading(line string) bool {
	return numberedHeadingRe.MatchString(strings.TrimSpace(line))
}

// IsUppercaseHeading matches short lines whose words are all uppercase or
// carry no letters at all, e.g. "REVISION HISTORY" or "SECTION 4".
func IsUppercaseHeading(line string) bool {
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > maxUppercaseHeadingWords {
		return false
	}
	for _, w := range words {
		if !isUpperWord(w) && hasLetter(w) {
			return false
		}
	}
	return true
}

// isUpperWord reports whether w has at least one cased letter and no lowercase ones.
func isUpperWord(w string) bool {
	cased := false
	for _, r := range w {
		switch {
		case unicode.IsLower(r):
			return false
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			cased = true
		}
	}
	return cased
}

func hasLetter(w string) bool {
	for _, r := range w {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
