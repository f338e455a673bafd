package github

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v57/github"

	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

// Comment adds a comment to an issue
func (c *Client) Comment(ctx context.Context, repo tracking.Repository, number int, text string) error {
	commentInput := &github.IssueComment{
		Body: github.String(text),
	}

	slog.Debug("GitHub API: Creating issue comment", "repo", repo.String(), "issue", number)
	if _, _, err := c.client.Issues.CreateComment(ctx, repo.Owner, repo.Name, number, commentInput); err != nil {
		return fmt.Errorf("failed to create comment on %s#%d: %w", repo, number, err)
	}

	slog.Info("Commented on issue", "repo", repo.String(), "issue", number)
	return nil
}
