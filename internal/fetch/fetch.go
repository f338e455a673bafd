// Package fetch downloads documents over HTTP and retries transient failures.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrFetch wraps every failed download
var ErrFetch = errors.New("failed to fetch document")

const (
	defaultTimeout    = 60 * time.Second
	defaultMaxElapsed = 2 * time.Minute
)

// Getter performs GET requests. Transport errors and 5xx/429 responses are
// retried with exponential backoff; other non-2xx responses fail immediately.
type Getter struct {
	client     *http.Client
	maxElapsed time.Duration
}

// NewGetter creates a getter; zero values select the defaults
func NewGetter(timeout, maxElapsed time.Duration) *Getter {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxElapsed <= 0 {
		maxElapsed = defaultMaxElapsed
	}
	return &Getter{
		client:     &http.Client{Timeout: timeout},
		maxElapsed: maxElapsed,
	}
}

func (g *Getter) newBackoff(ctx context.Context) backoff.BackOff {
	// BackOff implementations are stateful; always build a fresh one.
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = g.maxElapsed
	return backoff.WithContext(bo, ctx)
}

// Get downloads url and returns the response body
func (g *Getter) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		slog.Debug("Fetching document", "url", url, "attempt", attempt)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Cache-Control", "no-cache")

		resp, err := g.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return backoff.Permanent(fmt.Errorf("unexpected status %d", resp.StatusCode))
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = data
		return nil
	}, g.newBackoff(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrFetch, url, err)
	}
	return body, nil
}
