// Package tracking resolves the issue that tracks a subject and defines the
// storage contract used to mutate it.
package tracking

import (
	"context"
	"fmt"
	"strings"
)

// StaleLabel marks an issue the tracker considers inactive
const StaleLabel = "stale"

// Repository identifies an adapter repository, e.g. ioBroker/ioBroker.admin
type Repository struct {
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// URL returns the repository web URL
func (r Repository) URL() string {
	return "https://github.com/" + r.String()
}

// Adapter returns the adapter name without the ioBroker. prefix
func (r Repository) Adapter() string {
	if i := strings.Index(r.Name, "."); i >= 0 {
		return r.Name[i+1:]
	}
	return r.Name
}

// Issue is the store view of a tracking issue
type Issue struct {
	Number int
	Title  string
	Body   string
	Open   bool
	Labels []string
	URL    string
}

// HasLabel reports whether the issue carries the named label
func (i *Issue) HasLabel(name string) bool {
	for _, l := range i.Labels {
		if strings.EqualFold(l, name) {
			return true
		}
	}
	return false
}

// TitleMatcher selects issues belonging to a subject by title
type TitleMatcher func(title string) bool

// Subject is the unit tracked by exactly one open issue
type Subject struct {
	Repo  Repository
	Kind  string
	Match TitleMatcher
}

func (s Subject) String() string {
	return fmt.Sprintf("%s[%s]", s.Repo, s.Kind)
}

// Store is the issue tracker contract used by reconciliation.
// Implementations should not retry mutations on their own.
type Store interface {
	ListOpen(ctx context.Context, repo Repository, match TitleMatcher) ([]Issue, error)
	Get(ctx context.Context, repo Repository, number int) (*Issue, error)
	Create(ctx context.Context, repo Repository, title, body string) (int, error)
	Update(ctx context.Context, repo Repository, number int, title, body string) error
	Comment(ctx context.Context, repo Repository, number int, text string) error
	Close(ctx context.Context, repo Repository, number int) error
}
