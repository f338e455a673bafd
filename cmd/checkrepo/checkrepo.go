// Package checkrepo implements the check-repository command which runs the
// repository checker and reconciles the repository's tracking issue.
package checkrepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iobroker-bot-orga/check-tasks/cmd"
	"github.com/iobroker-bot-orga/check-tasks/internal/checker"
	"github.com/iobroker-bot-orga/check-tasks/internal/commands"
	"github.com/iobroker-bot-orga/check-tasks/internal/decision"
	"github.com/iobroker-bot-orga/check-tasks/internal/stats"
	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

// Flags holds the check options shared with the check-latest orchestrator
type Flags struct {
	Dry         bool
	Recreate    bool
	Recheck     bool
	ErrorsOnly  bool
	Suggestions bool
	Cleanup     bool
}

// AddFlags registers the check flags on a command
func AddFlags(cobraCmd *cobra.Command, f *Flags) {
	cobraCmd.Flags().BoolVar(&f.Dry, "dry", false, "Print decisions without modifying any issue")
	cobraCmd.Flags().BoolVar(&f.Recreate, "recreate", false, "Replace the existing issue with a new one")
	cobraCmd.Flags().BoolVar(&f.Recheck, "recheck", false, "Always comment, even if nothing changed")
	cobraCmd.Flags().BoolVar(&f.ErrorsOnly, "erroronly", false, "Only create an issue if errors are reported")
	cobraCmd.Flags().BoolVar(&f.Suggestions, "suggestions", false, "Create an issue for suggestions alone")
	cobraCmd.Flags().BoolVar(&f.Cleanup, "cleanup", false, "Remove fixed items from the issue")
}

// Args renders the flags as command line arguments, without --dry
func (f Flags) Args() []string {
	var args []string
	for _, flag := range []struct {
		set  bool
		name string
	}{
		{f.Cleanup, "--cleanup"},
		{f.ErrorsOnly, "--erroronly"},
		{f.Suggestions, "--suggestions"},
		{f.Recheck, "--recheck"},
		{f.Recreate, "--recreate"},
	} {
		if flag.set {
			args = append(args, flag.name)
		}
	}
	return args
}

// Options converts the flags into checker options
func (f Flags) Options(evidenceUser string) checker.Options {
	return checker.Options{
		ErrorsOnly:   f.ErrorsOnly,
		Suggestions:  f.Suggestions,
		Recreate:     f.Recreate,
		Recheck:      f.Recheck,
		Cleanup:      f.Cleanup,
		EvidenceUser: evidenceUser,
	}
}

// NewCheckRepositoryCmd creates and returns the check-repository command
func NewCheckRepositoryCmd(globalConfigFile *string, loadConfig func(string) (*cmd.Config, error)) *cobra.Command {
	var flags Flags

	builder := &commands.CommandBuilder{
		Use:   "check-repository <owner/repo|url>",
		Short: "Check a repository and update its checker issue",
		Long: `Run the repository checker against one adapter repository and keep the
"Please consider fixing issues detected by repository checker" issue in sync
with the reported errors, warnings and suggestions.

Fixed items are checked off, reappearing items are reopened and new items are
added. The issue is closed once nothing is reported anymore.`,
		MinArgs: 1,
		MaxArgs: 1,
		ExampleUsage: []string{
			"check-tasks check-repository ioBroker/ioBroker.admin",
			"check-tasks check-repository https://github.com/foo/ioBroker.bar --dry",
			"check-tasks check-repository foo/ioBroker.bar --recreate",
		},
	}

	cobraCmd := builder.BuildCommand(func(cobraCmd *cobra.Command, args []string) error {
		repo, err := commands.ParseRepositoryArg(args[0])
		if err != nil {
			return err
		}
		opts := flags.Options("")
		if err := opts.Validate(); err != nil {
			return err
		}

		bc := &commands.BaseCommand{
			ConfigFile: globalConfigFile,
			LoadConfig: loadConfig,
			DryRun:     flags.Dry,
		}
		ctx := cobraCmd.Context()
		if err := bc.Init(ctx); err != nil {
			return err
		}
		source, err := bc.CheckerSource()
		if err != nil {
			return err
		}

		var recorder checker.Recorder
		if !flags.Dry && bc.Config.StatisticsDir != "" {
			recorder = stats.NewStore(bc.Config.StatisticsDir)
		}

		opts.EvidenceUser = bc.Config.EvidenceUser
		return Run(ctx, os.Stdout, bc.Store, source, recorder, repo, opts)
	})

	AddFlags(cobraCmd, &flags)
	return cobraCmd
}

// Run checks one repository against the given store and prints the outcome.
// recorder may be nil.
func Run(ctx context.Context, out io.Writer, store tracking.Store, source checker.Source, recorder checker.Recorder, repo tracking.Repository, opts checker.Options) error {
	runner := checker.NewRunner(source, decision.NewEngine(store), recorder)

	outcome, err := runner.Check(ctx, repo, opts)
	if err != nil && !errors.Is(err, checker.ErrFatalCheck) {
		return fmt.Errorf("check of %s failed: %w", repo, err)
	}

	commands.DisplayOutcome(out, repo.String(), outcome)
	return err
}
