package core

// DefaultSectionHeading labels text that precedes the first heading, and
// the synthetic section produced when a document has no usable sections.
const DefaultSectionHeading = "Document"

// Section is a contiguous, labeled span of the document text.
// Start and End are half-open byte offsets covering the body, from just after
// the heading line to just before the next heading (or end of text).
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

// Span returns the section's body range.
func (s Section) Span() Span {
	return Span{Start: s.Start, End: s.End}
}
