package kb

import (
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the target chunk length in characters.
const DefaultChunkSize = 800

// ChunkText splits text into chunks of trimmed lines joined by single spaces.
//
// A chunk is closed once it reaches maxLen characters, or at a blank line
// when it is more than 70% full. Blank lines never appear in a chunk.
func ChunkText(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultChunkSize
	}
	soft := float64(maxLen) * 0.7

	var parts []string
	var buf []string
	count := 0
	flush := func() {
		parts = append(parts, strings.Join(buf, " "))
		buf, count = nil, 0
	}

	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			if float64(count) > soft {
				flush()
			}
			continue
		}
		buf = append(buf, line)
		count += utf8.RuneCountInString(line)
		if count >= maxLen {
			flush()
		}
	}
	if len(buf) > 0 {
		flush()
	}
	return parts
}

// splitLines splits on \n, \r\n and \r without producing a trailing empty line.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
