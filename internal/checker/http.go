package checker

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/iobroker-bot-orga/check-tasks/internal/fetch"
)

// HTTPSource calls a hosted repository checker, GET <endpoint>?url=<repoURL>
type HTTPSource struct {
	getter   *fetch.Getter
	endpoint string
}

// NewHTTPSource creates a source for the given checker endpoint
func NewHTTPSource(getter *fetch.Getter, endpoint string) *HTTPSource {
	return &HTTPSource{getter: getter, endpoint: endpoint}
}

func (s *HTTPSource) Run(ctx context.Context, repoURL string) (*Result, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid checker endpoint %q: %w", s.endpoint, err)
	}
	q := u.Query()
	q.Set("url", repoURL)
	u.RawQuery = q.Encode()

	slog.Info("Running repository checker", "repo", repoURL, "endpoint", s.endpoint)
	data, err := s.getter.Get(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to run checker for %s: %w", repoURL, err)
	}
	return parseReport(repoURL, data)
}
