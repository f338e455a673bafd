// Package stable implements the ready-for-stable command which keeps the
// stable promotion request issues of all adapters up to date.
package stable

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/iobroker-bot-orga/check-tasks/cmd"
	"github.com/iobroker-bot-orga/check-tasks/internal/commands"
	"github.com/iobroker-bot-orga/check-tasks/internal/decision"
	"github.com/iobroker-bot-orga/check-tasks/internal/feed"
	"github.com/iobroker-bot-orga/check-tasks/internal/promotion"
	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

// Options controls one ready-for-stable run
type Options struct {
	Recreate bool
	NoCheck  bool
	Now      time.Time
}

// NewReadyForStableCmd creates and returns the ready-for-stable command
func NewReadyForStableCmd(globalConfigFile *string, loadConfig func(string) (*cmd.Config, error)) *cobra.Command {
	var (
		dry      bool
		recreate bool
		noCheck  bool
	)

	builder := &commands.CommandBuilder{
		Use:   "ready-for-stable",
		Short: "Create or update stable promotion requests",
		Long: `Evaluate every adapter of the latest repository against the stable
repository and the usage statistics. Adapters that qualify get an issue asking
to add them to stable or to update their stable version; outdated requests are
superseded or closed, and stale requests are refreshed.

Unless --nocheck is given, a repository check is triggered for every adapter
that qualifies.`,
		MinArgs: 0,
		MaxArgs: 0,
		ExampleUsage: []string{
			"check-tasks ready-for-stable --dry",
			"check-tasks ready-for-stable --nocheck",
		},
	}

	cobraCmd := builder.BuildCommand(func(cobraCmd *cobra.Command, _ []string) error {
		bc := &commands.BaseCommand{
			ConfigFile: globalConfigFile,
			LoadConfig: loadConfig,
			DryRun:     dry,
		}
		ctx := cobraCmd.Context()
		if err := bc.Init(ctx); err != nil {
			return err
		}

		slog.Info("Loading repository feeds")
		snap, err := feed.Load(ctx, bc.Feed())
		if err != nil {
			return err
		}

		return Run(ctx, os.Stdout, bc.Store, bc.Dispatcher, bc.Config, snap, Options{
			Recreate: recreate,
			NoCheck:  noCheck,
			Now:      time.Now(),
		})
	})

	cobraCmd.Flags().BoolVar(&dry, "dry", false, "Print decisions without modifying any issue")
	cobraCmd.Flags().BoolVar(&recreate, "recreate", false, "Replace all open request issues with new ones")
	cobraCmd.Flags().BoolVar(&noCheck, "nocheck", false, "Do not trigger repository checks for candidates")

	return cobraCmd
}

// Run reconciles the request issues of every adapter in snap and triggers
// repository checks for the candidates.
func Run(ctx context.Context, out io.Writer, store tracking.Store, dispatcher commands.Dispatcher, config *cmd.Config, snap *feed.Snapshot, opts Options) error {
	candidates := promotion.EvaluateAll(snap, opts.Now)
	slog.Info("Evaluated releases", "adapters", len(snap.Latest.Names()), "candidates", len(candidates))

	reconciler := promotion.NewReconciler(decision.NewEngine(store), snap, promotion.Options{
		Recreate:     opts.Recreate,
		EvidenceUser: config.EvidenceUser,
	})

	result := commands.ExecuteAll(ctx, "ready-for-stable", snap.Latest.Names(), 0, func(ctx context.Context, adapter string) error {
		outcomes, err := reconciler.Reconcile(ctx, adapter, candidates[adapter])
		for _, o := range outcomes {
			if o.Decision.Action != decision.ActionNone {
				commands.DisplayOutcome(out, adapter, o)
			}
		}
		return err
	})
	reconcileErr := commands.HandleExecuteAllResult(out, result)

	if opts.NoCheck || len(candidates) == 0 {
		return reconcileErr
	}

	names := make([]string, 0, len(candidates))
	for adapter := range candidates {
		names = append(names, adapter)
	}
	sort.Strings(names)

	checks := commands.ExecuteAll(ctx, "trigger-check", names, config.CheckDelay, func(ctx context.Context, adapter string) error {
		return commands.TriggerCheck(ctx, dispatcher, config, candidates[adapter].Repository())
	})
	if err := commands.HandleExecuteAllResult(out, checks); err != nil {
		return err
	}
	return reconcileErr
}
