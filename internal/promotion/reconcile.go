package promotion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iobroker-bot-orga/check-tasks/internal/decision"
	"github.com/iobroker-bot-orga/check-tasks/internal/feed"
	"github.com/iobroker-bot-orga/check-tasks/internal/finding"
	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

// Options controls promotion reconciliation
type Options struct {
	// Recreate supersedes every open request issue with a fresh one.
	Recreate     bool
	EvidenceUser string
}

// Reconciler keeps the request issues of every adapter in line with the promotion rules
type Reconciler struct {
	engine *decision.Engine
	snap   *feed.Snapshot
	opts   Options
}

// NewReconciler creates a reconciler working on one feed snapshot
func NewReconciler(engine *decision.Engine, snap *feed.Snapshot, opts Options) *Reconciler {
	return &Reconciler{engine: engine, snap: snap, opts: opts}
}

// Reconcile runs one pass per request direction of an adapter.
// c is the adapter's current candidate or nil.
func (r *Reconciler) Reconcile(ctx context.Context, adapter string, c *Candidate) ([]decision.Outcome, error) {
	latest, ok := r.snap.Latest[adapter]
	if !ok {
		return nil, fmt.Errorf("adapter %s not found in latest repository", adapter)
	}
	owner := latest.Owner()
	if owner == "" {
		return nil, fmt.Errorf("cannot determine owner of adapter %s from %q", adapter, latest.Meta)
	}
	repo := tracking.Repository{Owner: owner, Name: "ioBroker." + adapter}

	renderer := &Renderer{
		Adapter:       adapter,
		Owner:         owner,
		Candidate:     c,
		StableVersion: r.snap.Stable[adapter].Version,
		LatestVersion: latest.Version,
		StableLine:    StableLine(r.snap.StableSource, adapter),
		EvidenceUser:  r.opts.EvidenceUser,
	}

	var outcomes []decision.Outcome
	for _, direction := range []finding.Direction{finding.DirectionAdd, finding.DirectionUpdate} {
		var current []string
		if c != nil && c.Direction == direction {
			current = []string{c.Request().Title()}
		}

		outcome, err := r.engine.Run(ctx, decision.Pass{
			Subject: tracking.Subject{
				Repo:  repo,
				Kind:  string(direction),
				Match: requestMatcher(repo, direction),
			},
			Current: current,
			Previous: func(issue *tracking.Issue) map[string]bool {
				return finding.TitleState(issue.Title)
			},
			Renderer: renderer,
			Policy: decision.Policy{
				Recreate:     r.opts.Recreate,
				SingleItem:   true,
				RefreshStale: true,
			},
		})
		if err != nil {
			return outcomes, fmt.Errorf("failed to reconcile %s request for %s: %w", direction, repo, err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// requestMatcher selects request issues of one direction whose title can be parsed.
// Unparseable titles are left alone for manual review.
func requestMatcher(repo tracking.Repository, direction finding.Direction) tracking.TitleMatcher {
	return func(title string) bool {
		if !finding.MatchesDirection(title, direction) {
			return false
		}
		if _, ok := finding.ParseRequestTitle(title); !ok {
			slog.Warn("Cannot parse request issue title, please check manually", "repo", repo.String(), "title", title)
			return false
		}
		return true
	}
}
