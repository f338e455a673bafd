package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/iobroker-bot-orga/check-tasks/internal/decision"
)

// formatOutcome renders a one line summary of a reconciliation pass
func formatOutcome(subject string, o decision.Outcome) string {
	d := o.Decision
	switch d.Action {
	case decision.ActionCreate:
		return fmt.Sprintf("%s %s: created issue #%d %q\n", color.GreenString("✅"), subject, o.Issue, d.Title)
	case decision.ActionUpdate:
		return fmt.Sprintf("%s %s: updated issue #%d (%s)\n", color.GreenString("✅"), subject, o.Issue, d.Reason)
	case decision.ActionRecreate:
		return fmt.Sprintf("%s %s: issue #%d replaced by #%d\n", color.GreenString("✅"), subject, o.Existing, o.Issue)
	case decision.ActionClose:
		return fmt.Sprintf("%s %s: closed issue #%d (%s)\n", color.GreenString("✅"), subject, o.Issue, d.Reason)
	default:
		if d.Fatal {
			return fmt.Sprintf("%s %s: %s\n", color.RedString("❌"), subject, d.Reason)
		}
		return fmt.Sprintf("%s %s: nothing to do (%s)\n", color.HiBlackString("·"), subject, d.Reason)
	}
}

// DisplayOutcome writes the summary of a reconciliation pass
func DisplayOutcome(w io.Writer, subject string, o decision.Outcome) {
	fmt.Fprint(w, formatOutcome(subject, o))
}

// DisplayBulkOperationSuccess displays the summary of an operation over many subjects
func DisplayBulkOperationSuccess(w io.Writer, operation string, count int, errors []error) {
	for _, err := range errors {
		fmt.Fprintf(w, "%s  %s failed: %v\n", color.YellowString("⚠️"), operation, err)
	}
	fmt.Fprintf(w, "%s %s finished for %d subject(s), %d failed\n", color.GreenString("✅"), operation, count, len(errors))
}
