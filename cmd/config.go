// Package cmd defines the configuration shared by all check-tasks commands.
package cmd

import (
	"strings"
	"time"

	"github.com/iobroker-bot-orga/check-tasks/internal/tracking"
)

// EventCheckRepository is the repository_dispatch event type that triggers a repository check
const EventCheckRepository = "check-repository"

// Config represents the structure of check-tasks.yaml
type Config struct {
	// BotRepository receives repository_dispatch events, e.g. iobroker-bot-orga/check-tasks
	BotRepository string `yaml:"bot_repository"`
	// EvidenceUser is mentioned in generated comments "for evidence"
	EvidenceUser  string        `yaml:"evidence_user,omitempty"`
	Feeds         Feeds         `yaml:"feeds"`
	Checker       Checker       `yaml:"checker"`
	StatisticsDir string        `yaml:"statistics_dir"`
	DispatchDelay time.Duration `yaml:"dispatch_delay"`
	CheckDelay    time.Duration `yaml:"check_delay"`
	HTTPTimeout   time.Duration `yaml:"http_timeout"`
}

// Feeds holds the locations of the repository and statistics documents
type Feeds struct {
	Latest     string `yaml:"latest"`
	Stable     string `yaml:"stable"`
	StableFile string `yaml:"stable_file"`
	Statistics string `yaml:"statistics"`
}

// Checker configures how the repository checker is invoked.
// Endpoint takes precedence over Command when both are set.
type Checker struct {
	Endpoint string   `yaml:"endpoint,omitempty"`
	Command  []string `yaml:"command,omitempty"`
}

// BotRepo returns the dispatch target as a repository
func (c *Config) BotRepo() (tracking.Repository, bool) {
	owner, name, ok := strings.Cut(c.BotRepository, "/")
	if !ok || owner == "" || name == "" {
		return tracking.Repository{}, false
	}
	return tracking.Repository{Owner: owner, Name: name}, true
}
