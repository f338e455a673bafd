package stats

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/iobroker-bot-orga/check-tasks/internal/finding"
)

var (
	githubLinkPattern = regexp.MustCompile(`\[([^\]]+)\]\(https://github\.com/[^)]+\)`)
	githubURLPattern  = regexp.MustCompile(`https://github\.com/[^\s)]+`)
	npmURLPattern     = regexp.MustCompile(`https://www\.npmjs\.com/[^\s)]+`)
	anyURLPattern     = regexp.MustCompile(`https://[^\s)]+`)
	spacePattern      = regexp.MustCompile(`\s+`)
)

// CleanMessage strips repository specific links so equal findings of
// different repositories compare equal
func CleanMessage(message string) string {
	message = githubLinkPattern.ReplaceAllString(message, "[$1]")
	message = githubURLPattern.ReplaceAllString(message, "")
	message = npmURLPattern.ReplaceAllString(message, "[NPM]")
	message = anyURLPattern.ReplaceAllString(message, "")
	message = spacePattern.ReplaceAllString(message, " ")
	return strings.TrimSpace(message)
}

// Aggregate is one finding with all repositories reporting it
type Aggregate struct {
	Message  string
	Code     finding.Code
	Adapters []string
}

// AggregateFiles groups findings of all files by their cleaned message
func AggregateFiles(files []File) []Aggregate {
	byMessage := make(map[string]*Aggregate)
	for _, f := range files {
		for _, e := range f.Entries {
			cleaned := CleanMessage(e.Issue)
			agg, ok := byMessage[cleaned]
			if !ok {
				code, _ := finding.ParseCode(e.Issue)
				agg = &Aggregate{Message: e.Issue, Code: code}
				byMessage[cleaned] = agg
			}
			line := fmt.Sprintf("- %s [%s](https://github.com/%s)", f.Name, e.Adapter, e.Adapter)
			if !contains(agg.Adapters, line) {
				agg.Adapters = append(agg.Adapters, line)
			}
		}
	}

	result := make([]Aggregate, 0, len(byMessage))
	for _, agg := range byMessage {
		sort.Strings(agg.Adapters)
		result = append(result, *agg)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Code.Number != result[j].Code.Number {
			return result[i].Code.Number < result[j].Code.Number
		}
		return result[i].Message < result[j].Message
	})
	return result
}

// Report renders the aggregated markdown report
func Report(aggregates []Aggregate, generated time.Time) string {
	var sb strings.Builder
	sb.WriteString("# Statistics Report\n\n")
	fmt.Fprintf(&sb, "*Generated on: %s*\n\n", generated.UTC().Format(time.RFC3339))

	for _, s := range []struct {
		heading  string
		severity finding.Severity
	}{
		{"## ERRORS", finding.SeverityError},
		{"## WARNINGS", finding.SeverityWarning},
		{"## SUGGESTIONS", finding.SeveritySuggestion},
	} {
		sb.WriteString(s.heading + "\n\n")
		for _, agg := range aggregates {
			if agg.Code.Severity != s.severity {
				continue
			}
			fmt.Fprintf(&sb, "### %s\n", agg.Message)
			sb.WriteString(strings.Join(agg.Adapters, "\n"))
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
