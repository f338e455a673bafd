// package main is the entry point for the check-tasks bot
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iobroker-bot-orga/check-tasks/cmd/checkrepo"
	configcmd "github.com/iobroker-bot-orga/check-tasks/cmd/config"
	"github.com/iobroker-bot-orga/check-tasks/cmd/latest"
	"github.com/iobroker-bot-orga/check-tasks/cmd/stable"
	"github.com/iobroker-bot-orga/check-tasks/cmd/statsreport"
	"github.com/iobroker-bot-orga/check-tasks/cmd/status"
	"github.com/iobroker-bot-orga/check-tasks/internal/config"
)

func main() {
	var configFile string
	var logLevel string
	var logFormat string

	rootCmd := &cobra.Command{
		Use:   "check-tasks",
		Short: "Keeps repository checker and stable promotion issues of ioBroker adapters up to date",
		Long: `check-tasks runs the repository checker against ioBroker adapter repositories
and maintains one tracking issue per repository with the reported findings.
It also raises issues asking to add adapters to the stable repository or to
update their stable version once a release has matured.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogger(logLevel, logFormat)
		},
	}

	// Add global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "check-tasks.yaml", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&logFormat, "log-format", "f", "text", "Log format (text, json)")

	// Create commands with access to the global config file
	rootCmd.AddCommand(configcmd.NewConfigCmd(&configFile, config.LoadConfig, config.SaveConfig))
	rootCmd.AddCommand(checkrepo.NewCheckRepositoryCmd(&configFile, config.LoadConfig))
	rootCmd.AddCommand(stable.NewReadyForStableCmd(&configFile, config.LoadConfig))
	rootCmd.AddCommand(latest.NewCheckLatestCmd(&configFile, config.LoadConfig))
	rootCmd.AddCommand(statsreport.NewStatsReportCmd(&configFile, config.LoadConfig))
	rootCmd.AddCommand(status.NewStatusCmd(&configFile, config.LoadConfig))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func setupLogger(level, format string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}

	slog.SetDefault(slog.New(handler))
}
