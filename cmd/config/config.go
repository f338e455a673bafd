// Package config implements the config command for writing the effective check-tasks configuration.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iobroker-bot-orga/check-tasks/cmd"
	"github.com/iobroker-bot-orga/check-tasks/internal/commands"
)

// Values holds the settings given on the command line; empty values keep the current setting
type Values struct {
	BotRepository   string
	EvidenceUser    string
	CheckerEndpoint string
	StatisticsDir   string
}

// NewConfigCmd creates and returns the config command
func NewConfigCmd(globalConfigFile *string, loadConfig func(string) (*cmd.Config, error), saveConfig func(string, *cmd.Config) error) *cobra.Command {
	var values Values

	cobraCmd := &cobra.Command{
		Use:   "config",
		Short: "Write the effective check-tasks.yaml configuration",
		Long: `Config writes the effective configuration to the configuration file.
Settings missing from an existing file are filled in with their defaults, and
settings given as flags replace the current values.`,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runConfig(os.Stdout, *globalConfigFile, values, loadConfig, saveConfig)
		},
	}

	cobraCmd.Flags().StringVarP(&values.BotRepository, "bot-repository", "b", "", "Repository receiving check-repository dispatch events (owner/name)")
	cobraCmd.Flags().StringVarP(&values.EvidenceUser, "evidence-user", "e", "", "User mentioned for evidence in generated comments")
	cobraCmd.Flags().StringVar(&values.CheckerEndpoint, "checker-endpoint", "", "URL of a hosted repository checker")
	cobraCmd.Flags().StringVar(&values.StatisticsDir, "statistics-dir", "", "Directory for checker statistics files")

	return cobraCmd
}

func runConfig(out io.Writer, configFile string, values Values, loadConfig func(string) (*cmd.Config, error), saveConfig func(string, *cmd.Config) error) error {
	config, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := updateConfigWithProvidedValues(config, values); err != nil {
		return err
	}

	if err := saveConfig(configFile, config); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	displayConfigSuccess(out, configFile, config)
	return nil
}

// updateConfigWithProvidedValues updates config with any non-empty provided values
func updateConfigWithProvidedValues(config *cmd.Config, values Values) error {
	if values.BotRepository != "" {
		repo, err := commands.ParseRepositoryArg(values.BotRepository)
		if err != nil {
			return fmt.Errorf("invalid bot repository: %w", err)
		}
		config.BotRepository = repo.String()
	}
	if values.EvidenceUser != "" {
		config.EvidenceUser = values.EvidenceUser
	}
	if values.CheckerEndpoint != "" {
		config.Checker.Endpoint = values.CheckerEndpoint
	}
	if values.StatisticsDir != "" {
		config.StatisticsDir = values.StatisticsDir
	}
	return nil
}

// displayConfigSuccess shows the configuration success message
func displayConfigSuccess(out io.Writer, configFile string, config *cmd.Config) {
	fmt.Fprintf(out, "Successfully wrote %s with:\n", configFile)
	fmt.Fprintf(out, "  Bot repository: %s\n", config.BotRepository)
	fmt.Fprintf(out, "  Evidence user: %s\n", config.EvidenceUser)
	if config.Checker.Endpoint != "" {
		fmt.Fprintf(out, "  Checker: %s\n", config.Checker.Endpoint)
	} else {
		fmt.Fprintf(out, "  Checker: %v\n", config.Checker.Command)
	}
	fmt.Fprintf(out, "  Statistics directory: %s\n", config.StatisticsDir)
	fmt.Fprintf(out, "  Dispatch delay: %s, check delay: %s\n", config.DispatchDelay, config.CheckDelay)
}
