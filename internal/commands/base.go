package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/iobroker-bot-orga/check-tasks/cmd"
	"github.com/iobroker-bot-orga/check-tasks/internal/checker"
	"github.com/iobroker-bot-orga/check-tasks/internal/feed"
	"github.com/iobroker-bot-orga/check-tasks/internal/fetch"
	"github.com/iobroker-bot-orga/check-tasks/internal/github"
	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

// Token environment variables, in lookup order
const (
	TokenEnv         = "IOBBOT_GITHUB_TOKEN"
	FallbackTokenEnv = "GITHUB_TOKEN"
)

// Dispatcher triggers repository_dispatch events
type Dispatcher interface {
	Dispatch(ctx context.Context, repo tracking.Repository, eventType string, payload any) error
}

// BaseCommand provides common fields and initialization for all commands
type BaseCommand struct {
	ConfigFile *string
	LoadConfig func(string) (*cmd.Config, error)
	// NewClient defaults to github.NewClient.
	NewClient func(ctx context.Context, token string) *github.Client
	DryRun    bool
	Out       io.Writer

	Config       *cmd.Config
	GitHubClient *github.Client
	// Store is the GitHub client, wrapped in a dry-run store when DryRun is set.
	Store      tracking.Store
	Dispatcher Dispatcher
}

// Init loads the configuration and creates the GitHub backed store
func (bc *BaseCommand) Init(ctx context.Context) error {
	if err := bc.InitConfig(); err != nil {
		return err
	}

	token, err := getGitHubToken()
	if err != nil {
		return err
	}

	newClient := bc.NewClient
	if newClient == nil {
		newClient = github.NewClient
	}
	bc.GitHubClient = newClient(ctx, token)

	bc.Store = bc.GitHubClient
	bc.Dispatcher = bc.GitHubClient
	if bc.DryRun {
		bc.Store = tracking.NewDryRunStore(bc.GitHubClient, bc.output())
		bc.Dispatcher = &dryRunDispatcher{out: bc.output()}
	}

	return nil
}

// InitConfig only loads the configuration, for commands that never talk to GitHub
func (bc *BaseCommand) InitConfig() error {
	config, err := bc.LoadConfig(*bc.ConfigFile)
	if err != nil {
		return err
	}
	bc.Config = config
	return nil
}

func (bc *BaseCommand) output() io.Writer {
	if bc.Out == nil {
		return os.Stdout
	}
	return bc.Out
}

// Getter returns an HTTP getter honouring the configured timeout
func (bc *BaseCommand) Getter() *fetch.Getter {
	return fetch.NewGetter(bc.Config.HTTPTimeout, 0)
}

// Feed returns the metrics feed described by the configuration
func (bc *BaseCommand) Feed() feed.Feed {
	return feed.NewHTTPFeed(bc.Getter(), feed.URLs{
		Latest:     bc.Config.Feeds.Latest,
		Stable:     bc.Config.Feeds.Stable,
		StableFile: bc.Config.Feeds.StableFile,
		Statistics: bc.Config.Feeds.Statistics,
	})
}

// CheckerSource returns the configured repository checker
func (bc *BaseCommand) CheckerSource() (checker.Source, error) {
	switch {
	case bc.Config.Checker.Endpoint != "":
		return checker.NewHTTPSource(bc.Getter(), bc.Config.Checker.Endpoint), nil
	case len(bc.Config.Checker.Command) > 0:
		return checker.NewCommandSource(bc.Config.Checker.Command), nil
	default:
		return nil, fmt.Errorf("no repository checker configured (set checker.endpoint or checker.command)")
	}
}

// getGitHubToken retrieves and validates the GitHub token
func getGitHubToken() (string, error) {
	if token := os.Getenv(TokenEnv); token != "" {
		return token, nil
	}
	if token := os.Getenv(FallbackTokenEnv); token != "" {
		return token, nil
	}
	return "", fmt.Errorf("%s or %s environment variable is required", TokenEnv, FallbackTokenEnv)
}
