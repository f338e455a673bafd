package decision

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iobroker-bot-orga/check-tasks/internal/lifecycle"
	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

// Pass is one reconciliation of one subject
type Pass struct {
	Subject tracking.Subject
	// Current holds the keys reported by the source in this run.
	Current []string
	// Fatal marks a source run that must not touch the store.
	Fatal bool
	// Previous decodes the persisted state of the existing issue.
	Previous func(issue *tracking.Issue) map[string]bool
	Renderer Renderer
	Policy   Policy
}

// Outcome reports what a pass did
type Outcome struct {
	Decision Decision
	// Issue is the number of the issue the decision was applied to or created.
	Issue int
	// Existing is the number of the issue found before the pass, 0 if none.
	Existing int
}

// Engine runs reconciliation passes against a store
type Engine struct {
	store    tracking.Store
	resolver *tracking.Resolver
}

// NewEngine creates an engine on top of the given store
func NewEngine(store tracking.Store) *Engine {
	return &Engine{
		store:    store,
		resolver: tracking.NewResolver(store),
	}
}

// Run resolves, classifies, decides and applies one pass.
// A fatal pass returns before the store is consulted.
func (e *Engine) Run(ctx context.Context, p Pass) (Outcome, error) {
	if p.Fatal {
		d := Decide(Input{Fatal: true}, p.Policy, p.Renderer)
		slog.Warn("Source run failed, leaving tracking issue untouched", "subject", p.Subject.String())
		return Outcome{Decision: d}, nil
	}

	existing, err := e.resolver.Resolve(ctx, p.Subject)
	if err != nil {
		return Outcome{}, err
	}

	previous := map[string]bool{}
	if existing != nil && p.Previous != nil {
		previous = p.Previous(existing)
	}

	items := lifecycle.Classify(previous, p.Current)
	d := Decide(Input{Existing: existing, Items: items}, p.Policy, p.Renderer)

	outcome := Outcome{Decision: d}
	if existing != nil {
		outcome.Existing = existing.Number
	}

	number, err := NewExecutor(e.store).Apply(ctx, p.Subject.Repo, existing, d)
	if err != nil {
		return outcome, err
	}
	outcome.Issue = number

	slog.Info("Reconciled subject",
		"subject", p.Subject.String(),
		"action", string(d.Action),
		"reason", d.Reason,
		"issue", number)
	return outcome, nil
}

// Executor applies decisions to a store
type Executor struct {
	store tracking.Store
}

// NewExecutor creates an executor for the given store
func NewExecutor(store tracking.Store) *Executor {
	return &Executor{store: store}
}

// Apply performs the mutations of a decision and returns the affected issue number.
// A recreate creates the successor before touching the existing issue, so a
// failed create leaves the existing issue unchanged.
func (x *Executor) Apply(ctx context.Context, repo tracking.Repository, existing *tracking.Issue, d Decision) (int, error) {
	switch d.Action {
	case ActionNone:
		if existing != nil {
			return existing.Number, nil
		}
		return 0, nil

	case ActionCreate:
		number, err := x.store.Create(ctx, repo, d.Title, d.Body)
		if err != nil {
			return 0, fmt.Errorf("failed to create issue in %s: %w", repo, err)
		}
		return number, nil

	case ActionUpdate:
		if existing == nil {
			return 0, fmt.Errorf("cannot update without an existing issue in %s", repo)
		}
		if err := x.store.Update(ctx, repo, existing.Number, d.Title, d.Body); err != nil {
			return existing.Number, fmt.Errorf("failed to update issue #%d in %s: %w", existing.Number, repo, err)
		}
		if d.Comment != "" {
			if err := x.store.Comment(ctx, repo, existing.Number, d.Comment); err != nil {
				return existing.Number, fmt.Errorf("failed to comment on issue #%d in %s: %w", existing.Number, repo, err)
			}
		}
		return existing.Number, nil

	case ActionRecreate:
		if existing == nil {
			return 0, fmt.Errorf("cannot recreate without an existing issue in %s", repo)
		}
		number, err := x.store.Create(ctx, repo, d.Title, d.Body)
		if err != nil {
			return 0, fmt.Errorf("failed to create successor of issue #%d in %s: %w", existing.Number, repo, err)
		}
		if err := x.closeWithComment(ctx, repo, existing.Number, d.SupersededComment(number)); err != nil {
			return number, err
		}
		return number, nil

	case ActionClose:
		if existing == nil {
			return 0, fmt.Errorf("cannot close without an existing issue in %s", repo)
		}
		if d.Body != "" {
			if err := x.store.Update(ctx, repo, existing.Number, d.Title, d.Body); err != nil {
				return existing.Number, fmt.Errorf("failed to update issue #%d in %s: %w", existing.Number, repo, err)
			}
		}
		return existing.Number, x.closeWithComment(ctx, repo, existing.Number, d.Comment)

	default:
		return 0, fmt.Errorf("unknown action %q", d.Action)
	}
}

func (x *Executor) closeWithComment(ctx context.Context, repo tracking.Repository, number int, comment string) error {
	if comment != "" {
		if err := x.store.Comment(ctx, repo, number, comment); err != nil {
			return fmt.Errorf("failed to comment on issue #%d in %s: %w", number, repo, err)
		}
	}
	if err := x.store.Close(ctx, repo, number); err != nil {
		return fmt.Errorf("failed to close issue #%d in %s: %w", number, repo, err)
	}
	return nil
}
