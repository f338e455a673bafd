// Package feed reads the ioBroker repository feeds and usage statistics.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/iobroker-bot-orga/check-tasks/internal/fetch"
)

// ErrNoStatistics is returned when an adapter has no usage statistics
var ErrNoStatistics = errors.New("no usage statistics")

// Default feed locations
const (
	DefaultLatestURL     = "http://repo.iobroker.live/sources-dist-latest.json"
	DefaultStableURL     = "http://repo.iobroker.live/sources-dist.json"
	DefaultStableFileURL = "https://raw.githubusercontent.com/ioBroker/ioBroker.repositories/master/sources-dist-stable.json"
	DefaultStatisticsURL = "https://www.iobroker.net/data/statistics.json"
)

// Release is one adapter entry of a repository feed
type Release struct {
	Version     string `json:"version"`
	VersionDate string `json:"versionDate"`
	Meta        string `json:"meta"`
}

// Date parses the release date
func (r Release) Date() (time.Time, bool) {
	if r.VersionDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, r.VersionDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Owner returns the repository owner derived from the meta URL,
// e.g. https://raw.githubusercontent.com/<owner>/ioBroker.x/master/io-package.json
func (r Release) Owner() string {
	return OwnerFromMeta(r.Meta)
}

// OwnerFromMeta extracts the owner segment of a raw.githubusercontent.com URL
func OwnerFromMeta(meta string) string {
	parts := strings.Split(meta, "/")
	if len(parts) < 4 {
		return ""
	}
	return parts[3]
}

// Repository maps adapter names to their release
type Repository map[string]Release

// Names returns adapter names in order, skipping metadata entries such as _repoInfo
func (r Repository) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		if strings.HasPrefix(name, "_") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseRepository decodes a repository feed document.
// Entries that do not decode as a release are skipped.
func ParseRepository(data []byte) (Repository, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse repository feed: %w", err)
	}

	repo := make(Repository, len(raw))
	for name, entry := range raw {
		if strings.HasPrefix(name, "_") {
			continue
		}
		var rel Release
		if err := json.Unmarshal(entry, &rel); err != nil {
			slog.Debug("Skipping undecodable feed entry", "adapter", name, "error", err)
			continue
		}
		repo[name] = rel
	}
	return repo, nil
}

// Statistics is the usage statistics document
type Statistics struct {
	Adapters map[string]int            `json:"adapters"`
	Versions map[string]map[string]int `json:"versions"`
}

// Installs returns the total install count of an adapter
func (s *Statistics) Installs(adapter string) (int, error) {
	if s == nil || s.Adapters == nil {
		return 0, fmt.Errorf("%w for %s", ErrNoStatistics, adapter)
	}
	n, ok := s.Adapters[adapter]
	if !ok {
		return 0, fmt.Errorf("%w for %s", ErrNoStatistics, adapter)
	}
	return n, nil
}

// VersionInstalls returns the install count of one adapter version, 0 if unknown
func (s *Statistics) VersionInstalls(adapter, version string) int {
	if s == nil {
		return 0
	}
	return s.Versions[adapter][version]
}

// Feed is the source of repository and usage metrics
type Feed interface {
	Latest(ctx context.Context) (Repository, error)
	Stable(ctx context.Context) (Repository, error)
	// StableSource returns the raw text of the stable source file.
	StableSource(ctx context.Context) (string, error)
	Statistics(ctx context.Context) (*Statistics, error)
}

// URLs configures the HTTP feed
type URLs struct {
	Latest     string
	Stable     string
	StableFile string
	Statistics string
}

// HTTPFeed reads all documents over HTTP
type HTTPFeed struct {
	getter *fetch.Getter
	urls   URLs
}

// NewHTTPFeed creates a feed reading from the given URLs
func NewHTTPFeed(getter *fetch.Getter, urls URLs) *HTTPFeed {
	return &HTTPFeed{getter: getter, urls: urls}
}

func (f *HTTPFeed) Latest(ctx context.Context) (Repository, error) {
	return f.repository(ctx, f.urls.Latest)
}

func (f *HTTPFeed) Stable(ctx context.Context) (Repository, error) {
	return f.repository(ctx, f.urls.Stable)
}

func (f *HTTPFeed) StableSource(ctx context.Context) (string, error) {
	data, err := f.getter.Get(ctx, f.urls.StableFile)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *HTTPFeed) Statistics(ctx context.Context) (*Statistics, error) {
	data, err := f.getter.Get(ctx, f.urls.Statistics)
	if err != nil {
		return nil, err
	}
	var stats Statistics
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to parse statistics: %w", err)
	}
	return &stats, nil
}

func (f *HTTPFeed) repository(ctx context.Context, url string) (Repository, error) {
	data, err := f.getter.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return ParseRepository(data)
}
