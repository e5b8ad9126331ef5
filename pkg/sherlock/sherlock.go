// Package sherlock adapts the sherlock username-enumeration tool,
// running it as a subprocess and normalizing its output into claimed
// account records.
package sherlock

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"accountscan/pkg/logger"
	"accountscan/pkg/runner"

	"github.com/sirupsen/logrus"
)

const binaryName = "sherlock"

// graceBuffer is added on top of the tool's own timeout so sherlock gets a
// chance to wind down by itself before we kill it.
const graceBuffer = 30 * time.Second

// Account is one platform where the target username is registered.
type Account struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Status   string `json:"status"`
	// ResponseTime is nil when the record came from free-text output,
	// which carries no timing information.
	ResponseTime *float64 `json:"response_time,omitempty"`
}

// Scanner launches sherlock and parses its results.
type Scanner struct {
	runner   runner.CommandRunner
	logger   *logger.Logger
	lookPath func(string) (string, error)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithRunner sets the command runner, used by tests to avoid spawning
// the real binary.
func WithRunner(r runner.CommandRunner) Option {
	return func(s *Scanner) { s.runner = r }
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// NewScanner creates a sherlock scanner.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		runner:   runner.NewSimpleRunner(),
		logger:   logger.NewLogger(logrus.InfoLevel),
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available reports whether the sherlock binary is discoverable on PATH.
func (s *Scanner) Available() bool {
	_, err := s.lookPath(binaryName)
	return err == nil
}

// Scan runs sherlock for username and returns the claimed accounts.
//
// Expected failure modes (launch errors, non-zero exit, subprocess timeout,
// unparseable output) degrade to an empty list with a warning; only context
// cancellation from the caller is propagated as an error. username must
// already be sanitized by the caller.
func (s *Scanner) Scan(ctx context.Context, username string, timeout time.Duration, verbose bool) ([]Account, error) {
	s.logger.WithFields(logger.Fields{"username": username}).Info("Sherlock scan started")

	tmpDir, err := os.MkdirTemp("", "sherlock_"+username+"_")
	if err != nil {
		s.logger.WithError(err).Warn("Sherlock scan skipped: cannot create temp dir")
		return []Account{}, nil
	}
	defer os.RemoveAll(tmpDir)

	resultFile := filepath.Join(tmpDir, username+".json")
	args := []string{
		"--timeout", strconv.Itoa(int(timeout.Seconds())),
		"--json", resultFile,
		"--print-found",
		// The separator keeps a username starting with "-" from being
		// read as a flag.
		"--",
		username,
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout+graceBuffer)
	defer cancel()

	stdout, stderr, runErr := s.runner.Run(runCtx, binaryName, args)

	// Cancellation from the caller always wins over local degradation.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if runErr != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			s.logger.WithFields(logger.Fields{
				"username": username,
				"timeout":  timeout.String(),
			}).Warn("Sherlock timed out; no results")
			return []Account{}, nil
		}
		if verbose && len(stderr) > 0 {
			s.logger.WithFields(logger.Fields{"stderr": string(stderr)}).Warn("Sherlock stderr")
		}
		// Sherlock exits non-zero in some benign cases; whatever it
		// printed is still worth parsing.
	}

	accounts := s.parseResults(resultFile, stdout)
	if len(accounts) == 0 {
		s.logger.WithFields(logger.Fields{"username": username}).Info("Sherlock found no claimed accounts")
		return []Account{}, nil
	}

	s.logger.WithFields(logger.Fields{
		"username": username,
		"count":    len(accounts),
	}).Info("Sherlock collected claimed accounts")
	return accounts, nil
}

// parseResults prefers the structured result file and falls back to the
// free-text stdout lines. The two parsers are independent so either format
// can be retired if the tool changes.
func (s *Scanner) parseResults(resultFile string, stdout []byte) []Account {
	if accounts, err := ParseResultFile(resultFile); err == nil && len(accounts) > 0 {
		return accounts
	} else if err != nil && !os.IsNotExist(err) {
		s.logger.WithError(err).Warn("Sherlock result file unreadable, falling back to stdout")
	}
	return ParseText(string(stdout))
}
