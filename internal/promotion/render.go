package promotion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/iobroker-bot-orga/check-tasks/internal/decision"
	"github.com/iobroker-bot-orga/check-tasks/internal/finding"
)

const stableFileEditURL = "https://github.com/ioBroker/ioBroker.repositories/edit/master/sources-dist-stable.json"

// Renderer renders promotion request issues for one adapter
type Renderer struct {
	Adapter string
	Owner   string
	// Candidate is nil when no promotion is currently due.
	Candidate *Candidate
	// StableVersion and LatestVersion are the current feed versions, used in close comments.
	StableVersion string
	LatestVersion string
	// StableLine is the 1-based line of the adapter entry in the stable source file, 0 if unknown.
	StableLine   int
	EvidenceUser string
}

var _ decision.Renderer = (*Renderer)(nil)

// Title returns the key of the single present request
func (r *Renderer) Title(items []finding.Item) string {
	for _, item := range items {
		if item.Active() {
			return item.Key
		}
	}
	if len(items) > 0 {
		return items[0].Key
	}
	return ""
}

// Body renders the request issue body from the current candidate
func (r *Renderer) Body(items []finding.Item, replaces int) string {
	c := r.Candidate
	if c == nil {
		return r.footer()
	}

	var sb strings.Builder
	if c.Direction == finding.DirectionAdd {
		fmt.Fprintf(&sb, "# Think about adding version %s to stable repository.\n", c.Latest.Version)
	} else {
		fmt.Fprintf(&sb, "# Think about update stable version to %s\n", c.Latest.Version)
	}

	stableVersion := c.Stable.Version
	if stableVersion == "" {
		stableVersion = "0.0.0"
	}
	fmt.Fprintf(&sb, "**Version**: stable=**%s** (%d days old) => latest=**%s** (%d days old)\n",
		stableVersion, c.Stable.AgeDays, c.Latest.Version, c.Latest.AgeDays)
	fmt.Fprintf(&sb, "**Installs**: stable=**%d** (%s%%), latest=**%d** (%s%%), total=**%d**\n\n",
		c.Stable.Installs, formatPercent(c.Stable.Percent), c.Latest.Installs, formatPercent(c.Latest.Percent), c.Installs)

	fmt.Fprintf(&sb, "Click to use [developer portal](https://www.iobroker.dev/adapter/%s/ioBroker.%s/releases)\n", r.Owner, r.Adapter)
	if c.Direction == finding.DirectionUpdate && r.StableLine > 0 {
		fmt.Fprintf(&sb, "Click to [edit](%s#L%d)\n", stableFileEditURL, r.StableLine)
	} else {
		fmt.Fprintf(&sb, "Click to [edit](%s)\n", stableFileEditURL)
	}
	sb.WriteString("\n")
	sb.WriteString("**Do not close this issue manually as a new issue will be created if condition for update still exists.**\n\n")
	if c.Direction == finding.DirectionAdd {
		fmt.Fprintf(&sb, "Please drop a comment if any reason exists which blocks adding adapter version %s to stable at this time.\n\n", c.Latest.Version)
	} else {
		fmt.Fprintf(&sb, "Please drop a comment if any reason exists which blocks updating to version %s at this time.\n\n", c.Latest.Version)
	}
	if replaces > 0 {
		fmt.Fprintf(&sb, "Note: This issue replaces issue #%d\n\n", replaces)
	}
	sb.WriteString(r.footer())
	return sb.String()
}

// UpdateComment is only rendered to keep a valid request from going stale
func (r *Renderer) UpdateComment(_ []finding.Item, opts decision.CommentOptions) string {
	if !opts.Stale {
		return ""
	}
	return "This issue seems to be still valid. So it should not be flagged stale.\n" +
		"Please consider processing the issue\n" +
		r.evidence()
}

// CloseComment explains why a request is no longer valid
func (r *Renderer) CloseComment(items []finding.Item) string {
	old, ok := resolvedRequest(items)
	if !ok {
		return "This issue seems to be outdated.\n\nSo this issue will be closed.\n\n" + r.evidence()
	}

	if r.StableVersion != "" && versionAtLeast(r.StableVersion, old.To) {
		return "This issue seems to be outdated.\n\n" +
			fmt.Sprintf("This issue suggests to update the stable version of this adapter to %s but the current stable version is already %s.\n\n", old.To, r.StableVersion) +
			"So this issue should be closed.\n\n" +
			r.evidence()
	}
	return "This issue seems to be outdated.\n\n" +
		fmt.Sprintf("This issue suggests to update the stable version of this adapter to %s but this request is no longer valid. Current latest release is %s.\n\n", old.To, r.LatestVersion) +
		"So this issue will be closed.\n\n" +
		r.evidence()
}

// SupersededComment explains the replacement of a request by a newer one
func (r *Renderer) SupersededComment(items []finding.Item, successor int) string {
	old, ok := resolvedRequest(items)
	if !ok || r.Candidate == nil {
		return fmt.Sprintf("This issue has been replaced by %s.\n\n%s", decision.IssueRef(successor), r.evidence())
	}
	return "This issue seems to be outdated.\n\n" +
		fmt.Sprintf("This issue suggests to update the stable version of this adapter to %s but in the meantime an update to version %s is suggested.\n\n", old.To, r.Candidate.Latest.Version) +
		fmt.Sprintf("So this issue will be closed and replaced by %s.\n\n", decision.IssueRef(successor)) +
		r.evidence()
}

func (r *Renderer) footer() string {
	return "Note: This is an automatically generated message. Feel free to contact me (@iobroker-bot) if anything seems to be incorrect!\n" +
		"      " + r.evidence()
}

func (r *Renderer) evidence() string {
	if r.EvidenceUser == "" {
		return ""
	}
	return "@" + r.EvidenceUser + " for evidence"
}

func resolvedRequest(items []finding.Item) (finding.Request, bool) {
	for _, item := range items {
		if item.State != finding.StateResolved {
			continue
		}
		if req, ok := finding.ParseRequestTitle(item.Key); ok {
			return req, true
		}
	}
	return finding.Request{}, false
}

func versionAtLeast(version, target string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	t, err := semver.NewVersion(target)
	if err != nil {
		return false
	}
	return !v.LessThan(t)
}

func formatPercent(p float64) string {
	s := fmt.Sprintf("%.2f", p)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// StableLine returns the 1-based line of an adapter entry in the stable source file, 0 if absent
func StableLine(source, adapter string) int {
	pattern := regexp.MustCompile(`^\s*"` + regexp.QuoteMeta(adapter) + `":\s*\{\s*$`)
	for i, line := range strings.Split(source, "\n") {
		if pattern.MatchString(strings.TrimRight(line, "\r")) {
			return i + 1
		}
	}
	return 0
}
