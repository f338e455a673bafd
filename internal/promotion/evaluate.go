// Package promotion decides which adapters are due for a stable promotion and
// renders the request issues that track them.
package promotion

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/iobroker-bot-orga/check-tasks/internal/feed"
	"github.com/iobroker-bot-orga/check-tasks/internal/finding"
	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

const day = 24 * time.Hour

// Promotion thresholds
const (
	// AddMinAge is the age a latest release needs before it is proposed for stable.
	AddMinAge = 30 * day
	// UpdateMinAge is the minimum age of a latest release before a stable update is proposed.
	UpdateMinAge = 15 * day
	// UpdateMaturity is the age or release gap that makes an update due regardless of usage.
	UpdateMaturity = 30 * day
	// MinInstallShare is the install share in percent that makes a young update due.
	MinInstallShare = 5.0
)

// ErrUnusableRelease is returned for releases that cannot be evaluated
var ErrUnusableRelease = errors.New("unusable release")

// VersionInfo describes one side of a promotion
type VersionInfo struct {
	Version  string
	Date     time.Time
	AgeDays  int
	Installs int
	Percent  float64
}

// Candidate is an adapter due for a stable promotion
type Candidate struct {
	Adapter   string
	Owner     string
	Direction finding.Direction
	Latest    VersionInfo
	// Stable is zero for add candidates.
	Stable   VersionInfo
	Installs int
	// DaysBetween is the gap between stable and latest release; 0 for add candidates.
	DaysBetween int
}

// Request returns the request tracked for this candidate
func (c *Candidate) Request() finding.Request {
	if c.Direction == finding.DirectionAdd {
		return finding.Request{Direction: finding.DirectionAdd, To: c.Latest.Version}
	}
	return finding.Request{Direction: finding.DirectionUpdate, From: c.Stable.Version, To: c.Latest.Version}
}

// Repository returns the adapter repository
func (c *Candidate) Repository() tracking.Repository {
	return tracking.Repository{Owner: c.Owner, Name: "ioBroker." + c.Adapter}
}

// Evaluate applies the promotion rules to one adapter. It returns nil without
// error when no promotion is due. stable is nil when the adapter is not yet listed.
func Evaluate(adapter string, latest feed.Release, stable *feed.Release, stats *feed.Statistics, now time.Time) (*Candidate, error) {
	latestVersion, err := semver.NewVersion(latest.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: latest version %q of %s: %v", ErrUnusableRelease, latest.Version, adapter, err)
	}
	if latestVersion.Prerelease() != "" {
		slog.Debug("Skipping prerelease", "adapter", adapter, "version", latest.Version)
		return nil, nil
	}

	if stable != nil && stable.Version == latest.Version {
		return nil, nil
	}

	total, err := stats.Installs(adapter)
	if err != nil {
		return nil, err
	}

	latestDate, ok := latest.Date()
	if !ok {
		return nil, fmt.Errorf("%w: latest release of %s has no valid date", ErrUnusableRelease, adapter)
	}

	c := &Candidate{
		Adapter:  adapter,
		Owner:    latest.Owner(),
		Installs: total,
		Latest:   versionInfo(adapter, latest.Version, latestDate, stats, total, now),
	}
	latestAge := now.Sub(latestDate)

	if stable == nil {
		c.Direction = finding.DirectionAdd
		if latestAge > AddMinAge {
			return c, nil
		}
		slog.Debug("Too young for publishing", "adapter", adapter, "age_days", c.Latest.AgeDays)
		return nil, nil
	}

	stableVersion, err := semver.NewVersion(stable.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: stable version %q of %s: %v", ErrUnusableRelease, stable.Version, adapter, err)
	}
	if !latestVersion.GreaterThan(stableVersion) {
		return nil, nil
	}

	stableDate, ok := stable.Date()
	if !ok {
		return nil, fmt.Errorf("%w: stable release of %s has no valid date", ErrUnusableRelease, adapter)
	}

	c.Direction = finding.DirectionUpdate
	c.Stable = versionInfo(adapter, stable.Version, stableDate, stats, total, now)
	c.DaysBetween = int(latestDate.Sub(stableDate) / day)

	if latestAge <= UpdateMinAge {
		slog.Debug("Too young for update", "adapter", adapter, "age_days", c.Latest.AgeDays)
		return nil, nil
	}
	if c.DaysBetween <= int(UpdateMaturity/day) && latestAge <= UpdateMaturity {
		slog.Debug("Too young for update", "adapter", adapter, "age_days", c.Latest.AgeDays, "days_between", c.DaysBetween)
		return nil, nil
	}
	if c.Latest.Percent <= MinInstallShare && latestAge <= UpdateMaturity {
		slog.Debug("Too few users", "adapter", adapter, "percent", c.Latest.Percent)
		return nil, nil
	}
	return c, nil
}

// EvaluateAll evaluates every adapter of the latest repository.
// Adapters that cannot be evaluated are logged and skipped.
func EvaluateAll(snap *feed.Snapshot, now time.Time) map[string]*Candidate {
	candidates := make(map[string]*Candidate)
	for _, adapter := range snap.Latest.Names() {
		var stable *feed.Release
		if rel, ok := snap.Stable[adapter]; ok {
			stable = &rel
		}
		c, err := Evaluate(adapter, snap.Latest[adapter], stable, snap.Statistics, now)
		if err != nil {
			slog.Warn("Skipping adapter", "adapter", adapter, "error", err)
			continue
		}
		if c == nil {
			continue
		}
		slog.Info("Promotion due",
			"adapter", adapter,
			"direction", string(c.Direction),
			"stable", c.Stable.Version,
			"latest", c.Latest.Version,
			"percent", c.Latest.Percent)
		candidates[adapter] = c
	}
	return candidates
}

func versionInfo(adapter, version string, date time.Time, stats *feed.Statistics, total int, now time.Time) VersionInfo {
	installs := stats.VersionInstalls(adapter, version)
	return VersionInfo{
		Version:  version,
		Date:     date,
		AgeDays:  int(now.Sub(date) / day),
		Installs: installs,
		Percent:  InstallShare(installs, total),
	}
}

// InstallShare returns installs/total in percent, rounded to two decimals
func InstallShare(installs, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(installs)/float64(total)*10000) / 100
}
