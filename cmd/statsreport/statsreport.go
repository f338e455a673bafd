// Package statsreport implements the stats-report command which aggregates the
// recorded checker statistics into one markdown report.
package statsreport

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iobroker-bot-orga/check-tasks/cmd"
	"github.com/iobroker-bot-orga/check-tasks/internal/commands"
	"github.com/iobroker-bot-orga/check-tasks/internal/stats"
)

// DefaultOutput is the report file written when --output is not given
const DefaultOutput = "statisticsReport.md"

// NewStatsReportCmd creates and returns the stats-report command
func NewStatsReportCmd(globalConfigFile *string, loadConfig func(string) (*cmd.Config, error)) *cobra.Command {
	var output string

	builder := &commands.CommandBuilder{
		Use:   "stats-report",
		Short: "Aggregate checker statistics into a markdown report",
		Long: `Read all statistics files written by check-repository and list every
reported finding together with the repositories reporting it, grouped into
errors, warnings and suggestions.`,
		MinArgs: 0,
		MaxArgs: 0,
		ExampleUsage: []string{
			"check-tasks stats-report",
			"check-tasks stats-report --output report.md",
		},
	}

	cobraCmd := builder.BuildCommand(func(_ *cobra.Command, _ []string) error {
		bc := &commands.BaseCommand{
			ConfigFile: globalConfigFile,
			LoadConfig: loadConfig,
		}
		if err := bc.InitConfig(); err != nil {
			return err
		}
		return Run(stats.NewStore(bc.Config.StatisticsDir), output, time.Now())
	})

	cobraCmd.Flags().StringVarP(&output, "output", "o", DefaultOutput, "Report file to write")

	return cobraCmd
}

// Run writes the aggregated report of store to output
func Run(store *stats.Store, output string, generated time.Time) error {
	files, err := store.ReadAll()
	if err != nil {
		return err
	}

	aggregates := stats.AggregateFiles(files)
	report := stats.Report(aggregates, generated)

	if err := os.WriteFile(output, []byte(report), 0644); err != nil { //nolint:gosec // report is public
		return fmt.Errorf("failed to write report: %w", err)
	}

	slog.Info("Statistics report written", "file", output, "repositories", len(files), "findings", len(aggregates))
	fmt.Printf("✅ Wrote %s (%d findings from %d repositories)\n", output, len(aggregates), len(files))
	return nil
}
