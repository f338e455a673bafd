// Package config provides functions for loading and saving check-tasks configuration files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iobroker-bot-orga/check-tasks/cmd"
	"github.com/iobroker-bot-orga/check-tasks/internal/feed"
)

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *cmd.Config {
	return &cmd.Config{
		BotRepository: "iobroker-bot-orga/check-tasks",
		EvidenceUser:  "mcm1957",
		Feeds: cmd.Feeds{
			Latest:     feed.DefaultLatestURL,
			Stable:     feed.DefaultStableURL,
			StableFile: feed.DefaultStableFileURL,
			Statistics: feed.DefaultStatisticsURL,
		},
		Checker: cmd.Checker{
			Command: []string{"npx", "@iobroker/repochecker", "--json"},
		},
		StatisticsDir: "statistics",
		DispatchDelay: 30 * time.Second,
		CheckDelay:    60 * time.Second,
		HTTPTimeout:   60 * time.Second,
	}
}

// LoadConfig loads the configuration from the specified file on top of the defaults.
// A missing file yields the defaults.
func LoadConfig(filename string) (*cmd.Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filename) //nolint:gosec // Config filename is from command-line flag
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified file
func SaveConfig(filename string, config *cmd.Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
