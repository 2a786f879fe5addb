// Package lint provides the rule engine that runs compliance detectors over
// document text.
//
// # Architecture
//
// The lint package is split into two layers:
//
//  1. Root package (pkg/lint/): the Context handed to every detector, the RuleDef
//     contract, the global registry and the Analyzer
//  2. Rule package (pkg/lint/rules/): the built-in detectors
//
// # Rule Registration
//
// Rules are registered via init() functions when their package is imported:
//
//	import _ "github.com/leapstack-labs/leapcheck/pkg/lint/rules"
//
// # Ordering
//
// Every rule carries an explicit Order. The Analyzer may run rules concurrently,
// but findings are always concatenated by ascending Order so that output is
// deterministic for a fixed text and rule set.
//
// # Creating Custom Rules
//
//	var MyRule = lint.RuleDef{
//		ID:          "retention_period",
//		Name:        "records.retention",
//		Group:       "records",
//		Description: "Records section must state a retention period.",
//		Severity:    core.SeverityMajor,
//		Order:       10,
//		Check:       checkRetention,
//	}
//
//	func init() {
//		lint.Register(MyRule)
//	}
package lint
