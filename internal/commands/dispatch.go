package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"

	"github.com/iobroker-bot-orga/check-tasks/cmd"
	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

// CheckPayload is the client payload of a check-repository event. URL carries
// the repository followed by the check flags, e.g. "owner/ioBroker.x --recheck".
type CheckPayload struct {
	URL string `json:"url"`
}

// NewCheckPayload renders the payload for repo and the given flags
func NewCheckPayload(repo tracking.Repository, flags ...string) CheckPayload {
	parts := append([]string{repo.String()}, flags...)
	return CheckPayload{URL: strings.Join(parts, " ")}
}

// TriggerCheck asks the bot repository to run a repository check
func TriggerCheck(ctx context.Context, d Dispatcher, config *cmd.Config, repo tracking.Repository, flags ...string) error {
	bot, ok := config.BotRepo()
	if !ok {
		return fmt.Errorf("invalid bot_repository %q, expected owner/name", config.BotRepository)
	}
	payload := NewCheckPayload(repo, flags...)
	if err := d.Dispatch(ctx, bot, cmd.EventCheckRepository, payload); err != nil {
		return err
	}
	slog.Info("Triggered repository check", "repo", repo.String(), "payload", payload.URL)
	return nil
}

type dryRunDispatcher struct {
	out io.Writer
}

func (d *dryRunDispatcher) Dispatch(_ context.Context, repo tracking.Repository, eventType string, payload any) error {
	slog.Info("Dry run: skipping repository dispatch", "repo", repo.String(), "event", eventType, "dry_run", true)
	fmt.Fprintf(d.out, "%s %s %s %+v\n", color.YellowString("[dry-run]"), color.CyanString("DISPATCH"), repo, payload)
	return nil
}
