package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

// SubjectFunc processes one subject of a bulk operation
type SubjectFunc func(ctx context.Context, name string) error

// ExecuteAllResult encapsulates the result of bulk operations
type ExecuteAllResult struct {
	TotalProcessed int
	Errors         []error
	OperationName  string
}

// ExecuteAll runs op for every name in order, waiting delay between two subjects.
// A failing subject is recorded and does not stop the others. Cancellation of
// ctx stops the iteration.
func ExecuteAll(ctx context.Context, operationName string, names []string, delay time.Duration, op SubjectFunc) *ExecuteAllResult {
	result := &ExecuteAllResult{OperationName: operationName}

	for i, name := range names {
		if i > 0 && delay > 0 {
			slog.Debug("Waiting before next subject", "delay", delay)
			if err := Sleep(ctx, delay); err != nil {
				result.Errors = append(result.Errors, err)
				return result
			}
		}
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, err)
			return result
		}

		slog.Info("Processing", "operation", operationName, "subject", name, "progress", fmt.Sprintf("%d/%d", i+1, len(names)))
		if err := op(ctx, name); err != nil {
			slog.Error("Subject failed", "operation", operationName, "subject", name, "error", err)
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", name, err))
			continue
		}
		result.TotalProcessed++
	}

	return result
}

// HandleExecuteAllResult provides consistent messaging for bulk operations
func HandleExecuteAllResult(w io.Writer, result *ExecuteAllResult) error {
	if result.TotalProcessed == 0 && len(result.Errors) > 0 {
		return fmt.Errorf("no operations completed due to errors: %v", result.Errors)
	}

	DisplayBulkOperationSuccess(w, result.OperationName, result.TotalProcessed, result.Errors)
	if len(result.Errors) > 0 {
		return fmt.Errorf("%d of %d %s operation(s) failed", len(result.Errors), result.TotalProcessed+len(result.Errors), result.OperationName)
	}
	return nil
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CommandBuilder helps create standardized commands
type CommandBuilder struct {
	Use          string
	Short        string
	Long         string
	MinArgs      int
	MaxArgs      int
	ExampleUsage []string
}

// BuildCommand creates a cobra command with common patterns
func (cb *CommandBuilder) BuildCommand(runFunc func(cobraCmd *cobra.Command, args []string) error) *cobra.Command {
	cobraCmd := &cobra.Command{
		Use:          cb.Use,
		Short:        cb.Short,
		Long:         cb.Long,
		Args:         cobra.RangeArgs(cb.MinArgs, cb.MaxArgs),
		SilenceUsage: true,
		RunE:         runFunc,
	}

	// Add examples if provided
	if len(cb.ExampleUsage) > 0 {
		examples := "\nExamples:\n"
		for _, example := range cb.ExampleUsage {
			examples += "  " + example + "\n"
		}
		cobraCmd.Long += examples
	}

	return cobraCmd
}
