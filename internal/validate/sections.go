package validate

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/section"
)

// ProcedureSection is the section assigned to numbering findings.
const ProcedureSection = "Procedure"

// MissingPrefix prefixes the section of a missing-section finding.
const MissingPrefix = "Missing: "

// locationTokenLen is how many characters of a location are matched
// against section bodies.
const locationTokenLen = 40

var whitespaceRun = regexp.MustCompile(`\s+`)

// MapSections returns a copy of findings with Section filled in.
//
// Attribution, most precise first:
//  1. missing_section findings get "Missing: <name>".
//  2. steps_numbering findings get "Procedure".
//  3. A finding with Pos gets the section containing Pos.Start.
//  4. A finding with Location gets the first section whose body contains
//     the whitespace-normalized first 40 characters of the location.
//  5. Anything else gets the first section.
//
// Section stays nil only when sections is empty, or when a finding already
// carried one.
func MapSections(findings []core.Finding, sections []core.Section) []core.Finding {
	out := core.CloneFindings(findings)

	var bodies []string
	normalizedBody := func(i int) string {
		if bodies == nil {
			bodies = make([]string, len(sections))
			for j, s := range sections {
				bodies[j] = collapseSpaces(s.Body)
			}
		}
		return bodies[i]
	}

	for i := range out {
		f := &out[i]
		switch f.ID {
		case core.FindingMissingSection:
			f.Section = core.StringPtr(MissingPrefix + missingName(f.Message))
			continue
		case core.FindingStepsNumbering:
			f.Section = core.StringPtr(ProcedureSection)
			continue
		}

		if f.Section == nil && f.Pos != nil {
			if idx := section.Find(sections, f.Pos.Start); idx >= 0 {
				f.Section = core.StringPtr(sections[idx].Heading)
			}
		}

		if f.Section == nil && f.Location != nil {
			token := locationToken(*f.Location)
			if token != "" {
				for j := range sections {
					if strings.Contains(normalizedBody(j), token) {
						f.Section = core.StringPtr(sections[j].Heading)
						break
					}
				}
			}
		}

		if f.Section == nil && len(sections) > 0 {
			f.Section = core.StringPtr(sections[0].Heading)
		}
	}
	return out
}

// missingName extracts the name after the first colon of a message.
func missingName(message string) string {
	if _, name, ok := strings.Cut(message, ":"); ok {
		return strings.TrimSpace(name)
	}
	return strings.TrimSpace(message)
}

// locationToken is the whitespace-normalized location cut to its first
// locationTokenLen characters.
func locationToken(location string) string {
	token := collapseSpaces(strings.TrimSpace(location))
	runes := []rune(token)
	if len(runes) > locationTokenLen {
		token = string(runes[:locationTokenLen])
	}
	return token
}

// collapseSpaces replaces whitespace runs with one space without trimming.
func collapseSpaces(s string) string {
	return whitespaceRun.ReplaceAllString(s, " ")
}
