package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v57/github"

	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

// Dispatch triggers a repository_dispatch event on repo with the given client payload
func (c *Client) Dispatch(ctx context.Context, repo tracking.Repository, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode dispatch payload: %w", err)
	}
	msg := json.RawMessage(raw)

	opts := github.DispatchRequestOptions{
		EventType:     eventType,
		ClientPayload: &msg,
	}

	slog.Debug("GitHub API: Dispatching repository event", "repo", repo.String(), "event", eventType)
	if _, _, err := c.client.Repositories.Dispatch(ctx, repo.Owner, repo.Name, opts); err != nil {
		return fmt.Errorf("failed to dispatch %s to %s: %w", eventType, repo, err)
	}

	slog.Info("Dispatched repository event", "repo", repo.String(), "event", eventType)
	return nil
}
