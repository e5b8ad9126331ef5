// Package runner executes external tools as subprocesses with argument
// validation and captured output.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"accountscan/pkg/logger"

	"github.com/sirupsen/logrus"
)

var safeCommand = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// CommandRunner runs a command and returns its captured stdout and stderr.
// The returned error reflects launch failures, non-zero exits, and context
// cancellation; output is returned in all cases so callers can parse
// whatever the tool managed to print.
type CommandRunner interface {
	Run(ctx context.Context, command string, args []string) (stdout, stderr []byte, err error)
}

// SimpleRunner is a basic command runner that executes system commands
type SimpleRunner struct {
	logger *logger.Logger
}

// NewSimpleRunner creates a new SimpleRunner instance
func NewSimpleRunner() *SimpleRunner {
	return &SimpleRunner{
		logger: logger.NewLogger(logrus.InfoLevel),
	}
}

// Run executes a command after validating the command name and every argument
func (r *SimpleRunner) Run(ctx context.Context, command string, args []string) ([]byte, []byte, error) {
	if err := r.validateCommand(command); err != nil {
		return nil, nil, fmt.Errorf("invalid command: %w", err)
	}

	for i, arg := range args {
		if err := r.validateArgument(arg); err != nil {
			return nil, nil, fmt.Errorf("invalid argument at index %d (%s): %w", i, arg, err)
		}
	}

	r.logger.WithFields(logger.Fields{
		"command": command,
		"args":    args,
	}).Debug("Executing command")

	cmd := exec.CommandContext(ctx, command, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if stderr.Len() > 0 {
			r.logger.WithFields(logger.Fields{
				"command": command,
				"stderr":  stderr.String(),
			}).Debug("Command stderr output")
		}
		return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("execution failed: %w", err)
	}

	return stdout.Bytes(), stderr.Bytes(), nil
}

// validateCommand validates that a command is safe to execute
func (r *SimpleRunner) validateCommand(command string) error {
	if command == "" {
		return fmt.Errorf("command is empty")
	}

	if !safeCommand.MatchString(command) {
		return fmt.Errorf("unsafe characters in command: %s", command)
	}

	return nil
}

// validateArgument validates that a command argument is safe
func (r *SimpleRunner) validateArgument(arg string) error {
	if arg == "" {
		return nil // Empty arguments are allowed
	}

	// Check for shell metacharacters that could enable command injection
	dangerous := []string{";", "&", "|", "`", "$", "(", ")", "\n", "\r", "<", ">"}
	for _, char := range dangerous {
		if strings.Contains(arg, char) {
			return fmt.Errorf("argument contains dangerous character: %s", char)
		}
	}

	// Check for path traversal
	if strings.Contains(arg, "..") {
		// Allow .. in URLs but not in file paths
		if !strings.Contains(arg, "://") {
			return fmt.Errorf("path traversal detected in argument")
		}
	}

	return nil
}
