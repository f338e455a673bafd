package checker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// CommandSource runs a local checker command with the repository URL appended
// as last argument. The command must print the JSON report to stdout.
type CommandSource struct {
	command []string
}

// NewCommandSource creates a source running the given command line
func NewCommandSource(command []string) *CommandSource {
	return &CommandSource{command: command}
}

func (s *CommandSource) Run(ctx context.Context, repoURL string) (*Result, error) {
	if len(s.command) == 0 {
		return nil, fmt.Errorf("no checker command configured")
	}
	args := append(append([]string(nil), s.command[1:]...), repoURL)

	slog.Info("Running repository checker", "repo", repoURL, "command", s.command[0])
	cmd := exec.CommandContext(ctx, s.command[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to run checker for %s: %w (stderr: %s)", repoURL, err, stderr.String())
	}
	return parseReport(repoURL, stdout.Bytes())
}
