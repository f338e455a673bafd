package github

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v57/github"

	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

// ListOpen lists open issues of a repository whose title is accepted by match.
// Pull requests are skipped.
func (c *Client) ListOpen(ctx context.Context, repo tracking.Repository, match tracking.TitleMatcher) ([]tracking.Issue, error) {
	issues, err := paginatedList(func(page int) ([]*github.Issue, *github.Response, error) {
		opts := &github.IssueListByRepoOptions{
			State: "open",
			ListOptions: github.ListOptions{
				PerPage: 100,
				Page:    page,
			},
		}
		slog.Debug("GitHub API: Listing open issues", "repo", repo.String(), "page", page)
		return c.client.Issues.ListByRepo(ctx, repo.Owner, repo.Name, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list issues of %s: %w", repo, err)
	}

	var result []tracking.Issue
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		if match != nil && !match(issue.GetTitle()) {
			continue
		}
		result = append(result, toIssue(issue))
	}

	return result, nil
}

// Get fetches a single issue by number
func (c *Client) Get(ctx context.Context, repo tracking.Repository, number int) (*tracking.Issue, error) {
	slog.Debug("GitHub API: Getting issue", "repo", repo.String(), "issue", number)
	issue, _, err := c.client.Issues.Get(ctx, repo.Owner, repo.Name, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get issue %s#%d: %w", repo, number, err)
	}

	result := toIssue(issue)
	return &result, nil
}

// Create opens a new issue and returns its number
func (c *Client) Create(ctx context.Context, repo tracking.Repository, title, body string) (int, error) {
	req := &github.IssueRequest{
		Title: github.String(title),
		Body:  github.String(body),
	}

	slog.Debug("GitHub API: Creating issue", "repo", repo.String(), "title", title)
	issue, _, err := c.client.Issues.Create(ctx, repo.Owner, repo.Name, req)
	if err != nil {
		return 0, fmt.Errorf("failed to create issue in %s: %w", repo, err)
	}

	slog.Info("Created issue", "repo", repo.String(), "issue", issue.GetNumber(), "title", title)
	return issue.GetNumber(), nil
}

// Update replaces title and body of an issue
func (c *Client) Update(ctx context.Context, repo tracking.Repository, number int, title, body string) error {
	req := &github.IssueRequest{
		Title: github.String(title),
		Body:  github.String(body),
	}

	slog.Debug("GitHub API: Updating issue", "repo", repo.String(), "issue", number)
	if _, _, err := c.client.Issues.Edit(ctx, repo.Owner, repo.Name, number, req); err != nil {
		return fmt.Errorf("failed to update issue %s#%d: %w", repo, number, err)
	}

	slog.Info("Updated issue", "repo", repo.String(), "issue", number)
	return nil
}

// Close closes an issue
func (c *Client) Close(ctx context.Context, repo tracking.Repository, number int) error {
	req := &github.IssueRequest{
		State: github.String("closed"),
	}

	slog.Debug("GitHub API: Closing issue", "repo", repo.String(), "issue", number)
	if _, _, err := c.client.Issues.Edit(ctx, repo.Owner, repo.Name, number, req); err != nil {
		return fmt.Errorf("failed to close issue %s#%d: %w", repo, number, err)
	}

	slog.Info("Closed issue", "repo", repo.String(), "issue", number)
	return nil
}

func toIssue(issue *github.Issue) tracking.Issue {
	var labels []string
	for _, label := range issue.Labels {
		labels = append(labels, label.GetName())
	}

	return tracking.Issue{
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		Body:   issue.GetBody(),
		Open:   issue.GetState() == "open",
		Labels: labels,
		URL:    issue.GetHTMLURL(),
	}
}
