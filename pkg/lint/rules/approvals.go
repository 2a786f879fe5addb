package rules

import (
	"github.com/leapstack-labs/leapcheck/pkg/core"
	"github.com/leapstack-labs/leapcheck/pkg/lint"
)

func init() {
	lint.Register(ApprovalLines)
}

// ApprovalLines reports configured approval labels missing from the text.
var ApprovalLines = lint.RuleDef{
	ID:          core.FindingMissingApproval,
	Name:        "approvals.required_lines",
	Group:       "approvals",
	Description: "Every configured approval label (e.g. \"Approved by\") must appear in the document.",
	Severity:    core.SeverityCritical,
	Order:       orderApprovals,
	Check:       checkApprovalLines,
	ConfigKeys:  []string{"approvals_lines"},
	Rationale:   "A document without its sign-off lines cannot be shown to be reviewed and released.",
	Fix:         "Add the approval block with name, role, date and signature for each approver.",
}

func checkApprovalLines(ctx *lint.Context) []core.Finding {
	return missingLabels(ctx.Text, ctx.Rules.ApprovalsLines, func(label string) core.Finding {
		return core.Finding{
			ID:       core.FindingMissingApproval,
			Severity: core.SeverityCritical,
			Message:  "Missing approval line: " + label,
		}
	})
}
