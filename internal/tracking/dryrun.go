package tracking

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
)

// DryRunStore passes reads through to the wrapped store and prints mutations
// instead of performing them. Created issues get number 0.
type DryRunStore struct {
	inner Store
	out   io.Writer
}

// NewDryRunStore wraps a store so that no mutation reaches it
func NewDryRunStore(inner Store, out io.Writer) *DryRunStore {
	return &DryRunStore{inner: inner, out: out}
}

// ListOpen delegates to the wrapped store
func (s *DryRunStore) ListOpen(ctx context.Context, repo Repository, match TitleMatcher) ([]Issue, error) {
	return s.inner.ListOpen(ctx, repo, match)
}

// Get delegates to the wrapped store
func (s *DryRunStore) Get(ctx context.Context, repo Repository, number int) (*Issue, error) {
	return s.inner.Get(ctx, repo, number)
}

func (s *DryRunStore) Create(_ context.Context, repo Repository, title, body string) (int, error) {
	slog.Info("Dry run: skipping issue creation", "repo", repo.String(), "title", title, "dry_run", true)
	s.print("CREATE", repo, 0, title, body)
	return 0, nil
}

func (s *DryRunStore) Update(_ context.Context, repo Repository, number int, title, body string) error {
	slog.Info("Dry run: skipping issue update", "repo", repo.String(), "issue", number, "dry_run", true)
	s.print("UPDATE", repo, number, title, body)
	return nil
}

func (s *DryRunStore) Comment(_ context.Context, repo Repository, number int, text string) error {
	slog.Info("Dry run: skipping comment", "repo", repo.String(), "issue", number, "dry_run", true)
	s.print("COMMENT", repo, number, "", text)
	return nil
}

func (s *DryRunStore) Close(_ context.Context, repo Repository, number int) error {
	slog.Info("Dry run: skipping issue close", "repo", repo.String(), "issue", number, "dry_run", true)
	s.print("CLOSE", repo, number, "", "")
	return nil
}

func (s *DryRunStore) print(action string, repo Repository, number int, title, text string) {
	yellow := color.New(color.FgYellow, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	target := repo.String()
	if number > 0 {
		target = fmt.Sprintf("%s#%d", target, number)
	}
	fmt.Fprintf(s.out, "%s %s\n", yellow("[dry-run] "+action), target)
	if title != "" {
		fmt.Fprintf(s.out, "  title: %s\n", title)
	}
	if text != "" {
		fmt.Fprintf(s.out, "%s\n%s\n%s\n", dim("----"), text, dim("----"))
	}
}
