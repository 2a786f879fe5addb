// Package core defines the shared language of the leapcheck system.
//
// This package contains:
//   - Domain entities (Section, Finding, ValidationResult)
//   - Severity and finding identifiers
//   - Rule configuration types (Rules, LLMConfig)
//   - Rule metadata DTOs (RuleInfo)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
