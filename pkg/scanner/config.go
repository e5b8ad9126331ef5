package scanner

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	pkgerrors "accountscan/pkg/errors"
	"accountscan/pkg/ratelimit"
	"accountscan/pkg/reddit"
)

// Mode selects which sub-scans a scan invocation runs.
type Mode string

const (
	ModeSherlock Mode = "sherlock"
	ModeReddit   Mode = "reddit"
	ModeBoth     Mode = "both"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSherlock, ModeReddit, ModeBoth:
		return Mode(s), nil
	}
	return "", pkgerrors.NewConfigError("mode", s, "must be one of: sherlock, reddit, both")
}

func (m Mode) includesSherlock() bool { return m == ModeSherlock || m == ModeBoth }
func (m Mode) includesReddit() bool   { return m == ModeReddit || m == ModeBoth }

var unsafeChars = regexp.MustCompile(`[^\w\-]`)

// SanitizeUsername maps a target username onto the character set safe for
// file paths and subprocess arguments.
func SanitizeUsername(username string) string {
	return unsafeChars.ReplaceAllString(username, "_")
}

// Config holds the full set of options for a single scan.
type Config struct {
	Username string
	Mode     Mode

	PerspectiveKey string
	Reddit         reddit.Credentials

	Comments  int
	Posts     int
	Threshold float64

	RatePerMin      float64
	SherlockTimeout time.Duration

	OutputReddit   string
	OutputSherlock string

	Verbose bool

	// Limiter optionally shares a rate limiter across scans; when nil a
	// private one is built from RatePerMin.
	Limiter *ratelimit.Limiter
}

// DefaultConfig returns a scan configuration with the standard defaults.
func DefaultConfig(username string) Config {
	return Config{
		Username:        username,
		Mode:            ModeBoth,
		Comments:        50,
		Posts:           20,
		Threshold:       0.7,
		RatePerMin:      60,
		SherlockTimeout: 60 * time.Second,
		OutputReddit:    "reddit_flagged.csv",
		OutputSherlock:  "sherlock_results.json",
	}
}

// Validate checks the configuration and normalizes the output paths to
// absolute form.
func (c *Config) Validate() error {
	if c.Username == "" {
		return pkgerrors.NewConfigError("username", c.Username, "must not be empty")
	}
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return pkgerrors.NewConfigError("threshold", c.Threshold, "must be in [0,1]")
	}
	if c.Limiter == nil && c.RatePerMin <= 0 {
		return pkgerrors.NewConfigError("rate_per_min", c.RatePerMin, "must be positive")
	}
	if c.SherlockTimeout <= 0 {
		return pkgerrors.NewConfigError("sherlock_timeout", c.SherlockTimeout, "must be positive")
	}

	for name, path := range map[string]*string{
		"output_reddit":   &c.OutputReddit,
		"output_sherlock": &c.OutputSherlock,
	} {
		if *path == "" {
			return pkgerrors.NewConfigError(name, *path, "must not be empty")
		}
		abs, err := filepath.Abs(*path)
		if err != nil {
			return pkgerrors.NewConfigError(name, *path, fmt.Sprintf("cannot resolve: %v", err))
		}
		*path = abs
	}
	return nil
}

// CacheKey identifies a scan for result caching.
func (c *Config) CacheKey() string {
	return SanitizeUsername(c.Username) + ":" + string(c.Mode)
}
