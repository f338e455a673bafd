// Package filter selects repositories by an owner/repo pattern with * wildcards.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter matches owner/repo pairs
type Filter struct {
	owner *regexp.Regexp
	repo  *regexp.Regexp
}

// Compile parses a pattern such as "ioBroker/*", "*/ioBroker.zigbee*" or "mcm*".
// A pattern without slash only constrains the owner. Matching is case insensitive.
func Compile(pattern string) (*Filter, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, fmt.Errorf("empty filter pattern")
	}
	ownerPart, repoPart, found := strings.Cut(pattern, "/")
	if !found {
		repoPart = "*"
	}
	if ownerPart == "" || repoPart == "" || strings.Contains(repoPart, "/") {
		return nil, fmt.Errorf("invalid filter pattern %q, expected owner/repo", pattern)
	}
	return &Filter{owner: wildcard(ownerPart), repo: wildcard(repoPart)}, nil
}

func wildcard(part string) *regexp.Regexp {
	quoted := strings.Split(part, "*")
	for i, q := range quoted {
		quoted[i] = regexp.QuoteMeta(q)
	}
	return regexp.MustCompile("(?i)^" + strings.Join(quoted, ".*") + "$")
}

// Match reports whether owner/repo is selected. A nil filter matches everything.
func (f *Filter) Match(owner, repo string) bool {
	if f == nil {
		return true
	}
	return f.owner.MatchString(owner) && f.repo.MatchString(repo)
}
