// Package status implements the status command for displaying the open
// tracking issues of a repository and the items they track.
package status

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iobroker-bot-orga/check-tasks/cmd"
	"github.com/iobroker-bot-orga/check-tasks/internal/commands"
	"github.com/iobroker-bot-orga/check-tasks/internal/finding"
	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

// NewStatusCmd creates and returns the status command
func NewStatusCmd(globalConfigFile *string, loadConfig func(string) (*cmd.Config, error)) *cobra.Command {
	builder := &commands.CommandBuilder{
		Use:   "status <owner/repo|url>",
		Short: "Show the open tracking issues of a repository",
		Long: `Display the open repository checker and stable request issues of a
repository together with the items they track. Nothing is modified.`,
		MinArgs: 1,
		MaxArgs: 1,
		ExampleUsage: []string{
			"check-tasks status ioBroker/ioBroker.admin",
		},
	}

	return builder.BuildCommand(func(cobraCmd *cobra.Command, args []string) error {
		repo, err := commands.ParseRepositoryArg(args[0])
		if err != nil {
			return err
		}
		bc := &commands.BaseCommand{
			ConfigFile: globalConfigFile,
			LoadConfig: loadConfig,
		}
		if err := bc.Init(cobraCmd.Context()); err != nil {
			return err
		}
		return runStatus(cobraCmd.Context(), os.Stdout, bc.Store, repo, *globalConfigFile)
	})
}

func isTrackingTitle(title string) bool {
	return finding.IsCheckerTitle(title) ||
		finding.MatchesDirection(title, finding.DirectionAdd) ||
		finding.MatchesDirection(title, finding.DirectionUpdate)
}

func runStatus(ctx context.Context, out io.Writer, store tracking.Store, repo tracking.Repository, configFile string) error {
	issues, err := store.ListOpen(ctx, repo, isTrackingTitle)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Tracking issues of %s\n\n", repo)
	if len(issues) == 0 {
		fmt.Fprintln(out, "No open tracking issues.")
		return nil
	}

	sort.Slice(issues, func(i, j int) bool {
		return issues[i].Number < issues[j].Number
	})
	for _, issue := range issues {
		displayIssue(out, repo, issue, configFile)
		fmt.Fprintln(out)
	}
	return nil
}

// displayIssue shows one tracking issue with its items
func displayIssue(out io.Writer, repo tracking.Repository, issue tracking.Issue, configFile string) {
	url := issue.URL
	if url == "" {
		url = fmt.Sprintf("%s/issues/%d", repo.URL(), issue.Number)
	}
	fmt.Fprintf(out, "#%d %s (%s)", issue.Number, issue.Title, url)
	if issue.HasLabel(tracking.StaleLabel) {
		fmt.Fprint(out, " [stale]")
	}
	fmt.Fprintln(out)

	if !finding.IsCheckerTitle(issue.Title) {
		if _, ok := finding.ParseRequestTitle(issue.Title); !ok {
			fmt.Fprintf(out, "  ❓ title cannot be parsed, issue is left alone\n")
		}
		return
	}

	items := finding.ParseBody(issue.Body)
	if len(items) == 0 {
		fmt.Fprintln(out, "  No items recorded")
		return
	}
	displayCounts(out, items)
	fmt.Fprintf(out, "  💡 %s%s check-repository %s --recheck\n", os.Args[0], getConfigFlag(configFile), repo)
}

// displayCounts prints open and fixed items per severity
func displayCounts(out io.Writer, items map[string]bool) {
	type count struct{ open, fixed int }
	counts := make(map[finding.Severity]*count)
	for key, checked := range items {
		sev := finding.SeverityOf(key)
		if counts[sev] == nil {
			counts[sev] = &count{}
		}
		if checked {
			counts[sev].fixed++
		} else {
			counts[sev].open++
		}
	}

	for _, row := range []struct {
		label    string
		severity finding.Severity
	}{
		{"errors", finding.SeverityError},
		{"warnings", finding.SeverityWarning},
		{"suggestions", finding.SeveritySuggestion},
	} {
		c := counts[row.severity]
		if c == nil {
			continue
		}
		fmt.Fprintf(out, "  %-12s: %d open, %d fixed\n", row.label, c.open, c.fixed)
	}
}

// getConfigFlag returns the config flag to repeat in suggested commands
func getConfigFlag(configFile string) string {
	if configFile == "" || configFile == "check-tasks.yaml" {
		return ""
	}
	if strings.ContainsAny(configFile, " \t") {
		return fmt.Sprintf(" --config %q", configFile)
	}
	return " --config " + configFile
}
