package checker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iobroker-bot-orga/check-tasks/internal/decision"
	"github.com/iobroker-bot-orga/check-tasks/internal/finding"
	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

// Options controls one repository check
type Options struct {
	ErrorsOnly   bool
	Suggestions  bool
	Recreate     bool
	Recheck      bool
	Cleanup      bool
	EvidenceUser string
}

// Validate rejects contradicting options
func (o Options) Validate() error {
	if o.Recheck && o.Recreate {
		return fmt.Errorf("--recheck and --recreate must not be used together")
	}
	return nil
}

// Recorder persists the findings present after a check
type Recorder interface {
	Record(repo tracking.Repository, keys []string) error
}

// Runner checks a repository and reconciles its tracking issue
type Runner struct {
	source   Source
	engine   *decision.Engine
	recorder Recorder
	now      func() time.Time
}

// NewRunner creates a runner. recorder may be nil.
func NewRunner(source Source, engine *decision.Engine, recorder Recorder) *Runner {
	return &Runner{source: source, engine: engine, recorder: recorder, now: time.Now}
}

// Check runs the checker for repo and applies the resulting decision.
// A fatal checker run returns ErrFatalCheck without touching the store.
func (r *Runner) Check(ctx context.Context, repo tracking.Repository, opts Options) (decision.Outcome, error) {
	if err := opts.Validate(); err != nil {
		return decision.Outcome{}, err
	}

	result, err := r.source.Run(ctx, repo.URL())
	if err != nil {
		return decision.Outcome{}, err
	}
	slog.Info("Checker finished",
		"repo", repo.String(),
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
		"suggestions", len(result.Suggestions))

	if !result.Fatal {
		result.Decorate()
	}

	outcome, err := r.engine.Run(ctx, decision.Pass{
		Subject: tracking.Subject{
			Repo:  repo,
			Kind:  "checker",
			Match: finding.IsCheckerTitle,
		},
		Current: result.Keys(),
		Fatal:   result.Fatal,
		Previous: func(issue *tracking.Issue) map[string]bool {
			if opts.Recreate {
				return map[string]bool{}
			}
			return finding.ParseBody(issue.Body)
		},
		Renderer: &Renderer{
			Repo:         repo,
			Result:       result,
			EvidenceUser: opts.EvidenceUser,
			Now:          r.now,
		},
		Policy: decision.Policy{
			ErrorsOnly:  opts.ErrorsOnly,
			Suggestions: opts.Suggestions,
			Recreate:    opts.Recreate,
			Recheck:     opts.Recheck,
			Cleanup:     opts.Cleanup,
		},
	})
	if err != nil {
		return outcome, err
	}

	if result.Fatal {
		slog.Error("Serious error during check, no issue processing possible", "repo", repo.String())
		return outcome, fmt.Errorf("%w for %s", ErrFatalCheck, repo)
	}

	if r.recorder != nil {
		if err := r.recorder.Record(repo, result.Keys()); err != nil {
			slog.Warn("Failed to save statistics", "repo", repo.String(), "error", err)
		}
	}
	return outcome, nil
}
