package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// Resolver finds the authoritative open issue of a subject
type Resolver struct {
	store Store
}

// NewResolver creates a resolver on top of the given store
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the open issue tracking the subject or nil if there is none.
// When several open issues match, the one with the highest number wins and
// the others are commented on and closed.
func (r *Resolver) Resolve(ctx context.Context, subject Subject) (*Issue, error) {
	issues, err := r.store.ListOpen(ctx, subject.Repo, subject.Match)
	if err != nil {
		return nil, fmt.Errorf("failed to list open issues for %s: %w", subject, err)
	}
	if len(issues) == 0 {
		return nil, nil
	}

	sort.Slice(issues, func(i, j int) bool {
		return issues[i].Number > issues[j].Number
	})
	keep := issues[0]

	for _, dup := range issues[1:] {
		slog.Warn("Closing duplicate tracking issue", "subject", subject.String(), "issue", dup.Number, "kept", keep.Number)
		if err := r.store.Comment(ctx, subject.Repo, dup.Number, DuplicateComment(keep.Number)); err != nil {
			return nil, fmt.Errorf("failed to comment on duplicate issue #%d: %w", dup.Number, err)
		}
		if err := r.store.Close(ctx, subject.Repo, dup.Number); err != nil {
			return nil, fmt.Errorf("failed to close duplicate issue #%d: %w", dup.Number, err)
		}
	}

	current, err := r.store.Get(ctx, subject.Repo, keep.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to read issue #%d: %w", keep.Number, err)
	}
	return current, nil
}

// DuplicateComment is posted on issues closed in favour of a newer one
func DuplicateComment(kept int) string {
	return fmt.Sprintf("This issue is outdated as a newer issue #%d tracks the same topic.\n\nThis issue will be closed.", kept)
}
