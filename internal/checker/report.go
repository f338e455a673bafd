package checker

import (
	"fmt"
	"strings"
	"time"

	"github.com/iobroker-bot-orga/check-tasks/internal/decision"
	"github.com/iobroker-bot-orga/check-tasks/internal/finding"
	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

// Renderer renders the checker tracking issue of one repository
type Renderer struct {
	Repo         tracking.Repository
	Result       *Result
	EvidenceUser string
	Now          func() time.Time
}

var _ decision.Renderer = (*Renderer)(nil)

func (r *Renderer) Title([]finding.Item) string {
	return finding.CheckerTitle
}

type section struct {
	severity finding.Severity
	heading  string
	empty    string
	guidance string
}

var sections = []section{
	{
		severity: finding.SeverityError,
		heading:  "**ERRORS:**",
		empty:    ":thumbsup: No errors found",
		guidance: "**Errors** reported by repository checker should be fixed as soon as possible. " +
			"Some of them require a new release to be considered as fixed. " +
			"**Please note that errors reported by checker might be considered as blocking point for future updates at stable repository.**",
	},
	{
		severity: finding.SeverityWarning,
		heading:  "**WARNINGS:**",
		empty:    ":thumbsup: No warnings found",
		guidance: "**Warnings** reported by repository checker should be reviewed. " +
			"While some warnings can be ignored due to good reasons or a dedicated decision of the developer, " +
			"most warnings should be fixed as soon as appropriate.",
	},
	{
		severity: finding.SeveritySuggestion,
		heading:  "**SUGGESTIONS:**",
		empty:    ":thumbsup: No suggestions found",
		guidance: "**Suggestions** reported by repository checker should be reviewed. " +
			"Suggestions can be ignored due to a decision of the developer but they are reported as a hint to use a configuration " +
			"which might get required in future or at least is used by most adapters. Suggestions are always optional to follow.",
	},
}

// Body renders the full issue body. Resolved items are rendered checked.
func (r *Renderer) Body(items []finding.Item, replaces int) string {
	lines := []string{
		"## Notification from ioBroker Check and Service Bot",
		"Dear adapter developer,",
		"",
		"I'm the ioBroker Check and Service Bot. I'm an automated tool processing routine tasks for the ioBroker infrastructure. " +
			fmt.Sprintf("I have recently checked the repository for your adapter _**%s**_ for common errors and appropriate suggestions to keep this adapter up to date.", r.Repo.Adapter()),
		"",
		"### This check is based on the current head revisions (master / main branch) of the adapter repository",
		"",
		"Please see the result of the check below.",
		"",
		fmt.Sprintf("### [%s](%s)", r.Repo.Name, r.Repo.URL()),
		"",
	}

	var guidance []string
	for _, s := range sections {
		found := false
		for _, item := range items {
			if item.Severity() != s.severity {
				continue
			}
			if !found {
				lines = append(lines, s.heading)
				found = true
			}
			lines = append(lines, finding.RenderLine(item.Key, !item.Active()))
		}
		if !found {
			lines = append(lines, s.empty)
		} else {
			guidance = append(guidance, s.guidance)
		}
		lines = append(lines, "")
	}

	lines = append(lines, "", "Please review issues reported and consider fixing them as soon as appropriate.")
	for _, g := range guidance {
		lines = append(lines, "", g)
	}

	lines = append(lines,
		"",
		"You may start a new check or force the creation of a new issue at any time by adding the following comment to this issue:",
		"",
		"`@iobroker-bot recheck`",
		"or",
		"`@iobroker-bot recreate`",
		"",
		"Please note that I (and the server at GitHub) have always plenty of work to do. So it may last up to 30 minutes until you see a reaction. I will drop a comment here as soon as I start processing.",
		"",
		"Feel free to contact me (@iobroker-bot) if you have any questions or feel that an issue is incorrectly flagged.",
		"",
		"And **THANKS A LOT** for maintaining this adapter from me and all users.",
		"_Let's work together for the best user experience._",
		"",
		"your",
		"_ioBroker Check and Service Bot_",
	)
	if replaces > 0 {
		lines = append(lines, "", fmt.Sprintf("Note: This issue replaces issue #%d", replaces))
	}
	if r.EvidenceUser != "" {
		lines = append(lines, "", "@"+r.EvidenceUser+" for evidence")
	}
	lines = append(lines, "")
	lines = append(lines, r.revision()...)
	return strings.Join(lines, "\n")
}

func (r *Renderer) revision() []string {
	var lines []string
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	stamp := "Last update at " + now().UTC().Format(time.RFC1123)
	if r.Result != nil && r.Result.CommitSHA != "" {
		stamp += " based on commit " + r.Result.CommitSHA
	}
	lines = append(lines, stamp)
	if r.Result != nil && r.Result.Version != "" {
		lines = append(lines, "ioBroker.repochecker "+r.Result.Version)
	}
	return lines
}

// UpdateComment lists fixed, reopened and new findings
func (r *Renderer) UpdateComment(items []finding.Item, opts decision.CommentOptions) string {
	lines := []string{"### This issue has been updated by ioBroker Check and Service Bot"}
	changes := false

	groups := []struct {
		heading string
		match   func(finding.Item) bool
		trailer []string
	}{
		{
			heading: "**The following issues have been fixed**",
			match:   func(i finding.Item) bool { return i.State == finding.StateResolved && !i.WasChecked },
			trailer: []string{"", ":thumbsup:Thanks for fixing the issues.", ""},
		},
		{
			heading: "**The following issues are not fixed and have been reopened**",
			match:   func(i finding.Item) bool { return i.State == finding.StateReopened },
			trailer: []string{""},
		},
		{
			heading: "**The following issues are new and have been added**",
			match:   func(i finding.Item) bool { return i.State == finding.StateNew },
			trailer: []string{""},
		},
	}

	for _, g := range groups {
		found := false
		for _, item := range items {
			if !g.match(item) {
				continue
			}
			if !found {
				lines = append(lines, g.heading)
				found = true
				changes = true
			}
			lines = append(lines, item.Key)
		}
		if found {
			lines = append(lines, g.trailer...)
		}
	}

	if opts.Recheck {
		lines = append(lines, "RECHECK has been performed as requested.")
		if !changes {
			lines = append(lines, "No changes detected.")
		}
	}

	if !changes && !opts.Recheck {
		return ""
	}
	return strings.Join(lines, "\n")
}

// CloseComment thanks the developer once everything is fixed
func (r *Renderer) CloseComment([]finding.Item) string {
	return closingText("All issues reported earlier seem to be fixed now.  \nTHANKS for your support.")
}

// SupersededComment points to the issue created by a recreate
func (r *Renderer) SupersededComment(_ []finding.Item, successor int) string {
	return closingText(fmt.Sprintf("Issue outdated due to RECREATE request. Follow up issue %s has been created.", decision.IssueRef(successor)))
}

func closingText(reason string) string {
	return reason + "  \n" +
		"This issue will be closed.  \n  \n" +
		"your  \n" +
		"_ioBroker Check and Service Bot_\n"
}
