// Package latest implements the check-latest command which triggers a
// repository check for every adapter of the latest repository.
package latest

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/iobroker-bot-orga/check-tasks/cmd"
	"github.com/iobroker-bot-orga/check-tasks/cmd/checkrepo"
	"github.com/iobroker-bot-orga/check-tasks/internal/checker"
	"github.com/iobroker-bot-orga/check-tasks/internal/commands"
	"github.com/iobroker-bot-orga/check-tasks/internal/feed"
	"github.com/iobroker-bot-orga/check-tasks/internal/filter"
	"github.com/iobroker-bot-orga/check-tasks/internal/stats"
	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

// Options controls one check-latest run
type Options struct {
	Filter *filter.Filter
	// From skips all adapters before the named one.
	From string
}

// CheckFunc checks one repository
type CheckFunc func(ctx context.Context, repo tracking.Repository) error

// NewCheckLatestCmd creates and returns the check-latest command
func NewCheckLatestCmd(globalConfigFile *string, loadConfig func(string) (*cmd.Config, error)) *cobra.Command {
	var (
		flags   checkrepo.Flags
		pattern string
		from    string
		local   bool
	)

	builder := &commands.CommandBuilder{
		Use:   "check-latest",
		Short: "Check all adapters of the latest repository",
		Long: `Walk all adapters of the latest repository in name order and trigger a
check-repository run for each of them, one at a time with dispatch_delay in
between. The check flags are forwarded to every run.

With --local the checks run in this process instead of being dispatched.`,
		MinArgs: 0,
		MaxArgs: 0,
		ExampleUsage: []string{
			"check-tasks check-latest --filter 'iobroker-community-adapters/*'",
			"check-tasks check-latest --from admin --erroronly",
			"check-tasks check-latest --filter '*/*watch*' --local --dry",
		},
	}

	cobraCmd := builder.BuildCommand(func(cobraCmd *cobra.Command, _ []string) error {
		var f *filter.Filter
		if pattern != "" {
			compiled, err := filter.Compile(pattern)
			if err != nil {
				return err
			}
			f = compiled
		}
		if err := flags.Options("").Validate(); err != nil {
			return err
		}

		// Remote runs forward --dry to the dispatched check instead.
		bc := &commands.BaseCommand{
			ConfigFile: globalConfigFile,
			LoadConfig: loadConfig,
			DryRun:     flags.Dry && local,
		}
		ctx := cobraCmd.Context()
		if err := bc.Init(ctx); err != nil {
			return err
		}

		latest, err := bc.Feed().Latest(ctx)
		if err != nil {
			return err
		}

		var check CheckFunc
		if local {
			source, err := bc.CheckerSource()
			if err != nil {
				return err
			}
			var recorder checker.Recorder
			if !flags.Dry && bc.Config.StatisticsDir != "" {
				recorder = stats.NewStore(bc.Config.StatisticsDir)
			}
			opts := flags.Options(bc.Config.EvidenceUser)
			check = func(ctx context.Context, repo tracking.Repository) error {
				return checkrepo.Run(ctx, os.Stdout, bc.Store, source, recorder, repo, opts)
			}
		} else {
			args := flags.Args()
			if flags.Dry {
				args = append(args, "--dry")
			}
			check = func(ctx context.Context, repo tracking.Repository) error {
				return commands.TriggerCheck(ctx, bc.Dispatcher, bc.Config, repo, args...)
			}
		}

		return Run(ctx, os.Stdout, latest, bc.Config, Options{Filter: f, From: from}, check)
	})

	checkrepo.AddFlags(cobraCmd, &flags)
	cobraCmd.Flags().StringVar(&pattern, "filter", "", "Only process repositories matching owner/repo, * is a wildcard")
	cobraCmd.Flags().StringVar(&from, "from", "", "Start processing at this adapter")
	cobraCmd.Flags().BoolVar(&local, "local", false, "Run the checks in this process instead of dispatching them")

	return cobraCmd
}

// Select returns the repositories to process in adapter name order
func Select(latest feed.Repository, opts Options) []tracking.Repository {
	var repos []tracking.Repository
	skipping := opts.From != ""
	if skipping {
		slog.Info("Searching for first adapter to process", "from", opts.From)
	}

	for _, adapter := range latest.Names() {
		if adapter == opts.From {
			skipping = false
		}
		if skipping {
			slog.Debug("Skipping adapter before --from", "adapter", adapter)
			continue
		}

		owner := latest[adapter].Owner()
		if owner == "" {
			slog.Warn("Cannot determine owner, skipping", "adapter", adapter, "meta", latest[adapter].Meta)
			continue
		}
		repo := tracking.Repository{Owner: owner, Name: "ioBroker." + adapter}
		if !opts.Filter.Match(repo.Owner, repo.Name) {
			slog.Debug("Skipping repository not matching filter", "repo", repo.String())
			continue
		}
		repos = append(repos, repo)
	}

	if skipping {
		slog.Warn("Adapter given by --from not found", "from", opts.From)
	}
	return repos
}

// Run checks every selected repository, waiting dispatch_delay between two of them
func Run(ctx context.Context, out io.Writer, latest feed.Repository, config *cmd.Config, opts Options, check CheckFunc) error {
	repos := Select(latest, opts)
	slog.Info("Selected repositories", "count", len(repos), "total", len(latest.Names()))

	byName := make(map[string]tracking.Repository, len(repos))
	names := make([]string, 0, len(repos))
	for _, repo := range repos {
		byName[repo.String()] = repo
		names = append(names, repo.String())
	}

	result := commands.ExecuteAll(ctx, "check-latest", names, config.DispatchDelay, func(ctx context.Context, name string) error {
		return check(ctx, byName[name])
	})
	return commands.HandleExecuteAllResult(out, result)
}
