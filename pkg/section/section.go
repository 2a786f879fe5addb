// Package section splits extracted document text into labeled,
// position-tracked sections.
package section

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Split partitions text into sections in text order.
//
// Each heading line closes the section under the previous heading and opens
// a new one whose body starts right after the heading line. Sections whose
// trimmed body is empty are dropped; if none remain the whole text becomes a
// single "Document" section.
func Split(text string) []core.Section {
	var (
		sections []core.Section
		buf      []string
		heading  = core.DefaultSectionHeading
		cursor   int
		start    int
	)

	flush := func(end int) {
		if len(buf) == 0 {
			return
		}
		sections = append(sections, core.Section{
			Heading: heading,
			Body:    strings.TrimSpace(strings.Join(buf, "\n")),
			Start:   start,
			End:     min(end, len(text)),
		})
		buf = buf[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		// +1 for the newline consumed by Split
		lineLen := len(line) + 1
		stripped := strings.TrimSpace(line)

		if IsHeading(stripped) {
			flush(cursor)
			heading = strings.TrimRight(stripped, ":")
			start = cursor + lineLen
		} else {
			buf = append(buf, line)
		}
		cursor += lineLen
	}
	flush(cursor)

	kept := sections[:0]
	for _, s := range sections {
		if s.Body != "" {
			kept = append(kept, s)
		}
	}

	if len(kept) == 0 {
		return []core.Section{{
			Heading: core.DefaultSectionHeading,
			Body:    strings.TrimSpace(text),
			Start:   0,
			End:     len(text),
		}}
	}
	return kept
}

// Find returns the index of the section whose span contains offset, or -1.
// sections must be ordered by Start with non-overlapping spans, as Split
// produces them.
func Find(sections []core.Section, offset int) int {
	// First section starting after offset; the candidate is the one before it.
	i := sort.Search(len(sections), func(i int) bool {
		return sections[i].Start > offset
	}) - 1
	if i < 0 || !sections[i].Span().Contains(offset) {
		return -1
	}
	return i
}
