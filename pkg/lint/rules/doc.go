// Package rules provides the built-in compliance detectors.
//
// Rules in this package, in canonical output order:
//   - missing_section: configured section names absent from the text
//   - missing_approval: configured approval labels absent from the text
//   - placeholder: unresolved placeholder text such as TBD or XXX
//   - stale_reference: old dates near revision or effective-date wording
//   - steps_numbering: a procedure without enough numbered steps
//
// Importing the package registers every rule with the lint registry.
package rules

// Canonical output order. LLM findings are appended after all of these.
const (
	orderRequiredSections = iota + 1
	orderApprovals
	orderPlaceholders
	orderStaleReferences
	orderNumberedSteps
)
