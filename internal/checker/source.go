// Package checker runs the repository checker and renders its findings into
// tracking issues.
package checker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iobroker-bot-orga/check-tasks/internal/finding"
)

// ErrFatalCheck is returned when a checker run failed so badly that no
// tracking issue may be touched
var ErrFatalCheck = errors.New("repository check failed")

// fatalCodes mark checker runs that could not inspect the repository
var fatalCodes = []string{"[E000]", "[E999]"}

// Result is the normalized output of one checker run
type Result struct {
	RepoURL     string
	Errors      []string
	Warnings    []string
	Suggestions []string
	Fatal       bool
	CommitSHA   string
	Version     string
}

// Keys returns all findings of the run
func (r *Result) Keys() []string {
	keys := make([]string, 0, len(r.Errors)+len(r.Warnings)+len(r.Suggestions))
	keys = append(keys, r.Errors...)
	keys = append(keys, r.Warnings...)
	keys = append(keys, r.Suggestions...)
	return keys
}

// Source runs the repository checker against one repository
type Source interface {
	Run(ctx context.Context, repoURL string) (*Result, error)
}

// report is the checker's JSON output
type report struct {
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	LastCommitSha string   `json:"lastCommitSha"`
	Version       string   `json:"version"`
}

// parseReport decodes checker output and normalizes it
func parseReport(repoURL string, data []byte) (*Result, error) {
	var raw report
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse checker output: %w", err)
	}
	return Normalize(repoURL, raw.Errors, raw.Warnings, raw.LastCommitSha, raw.Version), nil
}

// Normalize sorts findings, moves suggestions out of the warnings and detects fatal runs
func Normalize(repoURL string, errs, warnings []string, commitSHA, version string) *Result {
	r := &Result{
		RepoURL:   repoURL,
		CommitSHA: commitSHA,
		Version:   version,
	}
	for _, e := range errs {
		if key := finding.NormalizeKey(e); key != "" {
			r.Errors = append(r.Errors, key)
		}
	}
	for _, w := range warnings {
		key := finding.NormalizeKey(w)
		switch {
		case key == "":
		case strings.HasPrefix(key, "[S"):
			r.Suggestions = append(r.Suggestions, key)
		default:
			r.Warnings = append(r.Warnings, key)
		}
	}
	sort.Strings(r.Errors)
	sort.Strings(r.Warnings)
	sort.Strings(r.Suggestions)
	r.Fatal = IsFatal(r.Errors)
	return r
}

// IsFatal reports whether any error carries a fatal code
func IsFatal(errs []string) bool {
	for _, e := range errs {
		for _, code := range fatalCodes {
			if strings.HasPrefix(e, code) {
				return true
			}
		}
	}
	return false
}

// Decorate turns file names and tool mentions in every finding into links
func (r *Result) Decorate() {
	owner, repo := splitRepoURL(r.RepoURL)
	for i := range r.Errors {
		r.Errors[i] = Decorate(r.Errors[i], owner, repo)
	}
	for i := range r.Warnings {
		r.Warnings[i] = Decorate(r.Warnings[i], owner, repo)
	}
	for i := range r.Suggestions {
		r.Suggestions[i] = Decorate(r.Suggestions[i], owner, repo)
	}
}

func splitRepoURL(repoURL string) (owner, repo string) {
	parts := strings.Split(strings.TrimSuffix(repoURL, "/"), "/")
	if len(parts) < 2 {
		return "", ""
	}
	repo = parts[len(parts)-1]
	if strings.HasPrefix(repo, "iobroker.") {
		repo = "ioBroker." + strings.TrimPrefix(repo, "iobroker.")
	}
	return parts[len(parts)-2], repo
}
