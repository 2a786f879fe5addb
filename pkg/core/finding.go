package core

// FindingID identifies the detector that produced a finding.
type FindingID string

// Finding identifiers, one per detector.
const (
	FindingMissingSection  FindingID = "missing_section"
	FindingMissingApproval FindingID = "missing_approval"
	FindingPlaceholder     FindingID = "placeholder"
	FindingStaleReference  FindingID = "stale_reference"
	FindingStepsNumbering  FindingID = "steps_numbering"
	FindingLLM             FindingID = "llm"
)

// Span is a half-open [Start, End) byte range into the document text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether offset falls within the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Finding is a single detected compliance issue.
//
// ID, Severity, Message, Location and Pos are set by the detector that
// creates the finding. Citation and Section are filled in by later
// pipeline stages.
type Finding struct {
	ID       FindingID `json:"id"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Location *string   `json:"location"`
	Citation *string   `json:"citation"`
	Section  *string   `json:"section"`
	Pos      *Span     `json:"pos"`
}

// LocationText returns the location or "" when unset.
func (f Finding) LocationText() string {
	if f.Location == nil {
		return ""
	}
	return *f.Location
}

// CitationText returns the citation or "" when unset.
func (f Finding) CitationText() string {
	if f.Citation == nil {
		return ""
	}
	return *f.Citation
}

// SectionText returns the section or "" when unset.
func (f Finding) SectionText() string {
	if f.Section == nil {
		return ""
	}
	return *f.Section
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// CloneFindings returns a copy of findings whose optional fields do not
// alias the originals.
func CloneFindings(findings []Finding) []Finding {
	if findings == nil {
		return nil
	}
	out := make([]Finding, len(findings))
	for i, f := range findings {
		out[i] = f
		if f.Location != nil {
			out[i].Location = StringPtr(*f.Location)
		}
		if f.Citation != nil {
			out[i].Citation = StringPtr(*f.Citation)
		}
		if f.Section != nil {
			out[i].Section = StringPtr(*f.Section)
		}
		if f.Pos != nil {
			pos := *f.Pos
			out[i].Pos = &pos
		}
	}
	return out
}
