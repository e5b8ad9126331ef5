// Package scanner orchestrates the multi-source account scan: it fans out
// the enumeration and content sub-scans, bounds classification concurrency,
// filters by toxicity threshold, and merges everything into one bundle.
package scanner

import (
	"context"
	"net/http"
	"sync"
	"time"

	"accountscan/pkg/cache"
	pkgerrors "accountscan/pkg/errors"
	"accountscan/pkg/logger"
	"accountscan/pkg/perspective"
	"accountscan/pkg/ratelimit"
	"accountscan/pkg/reddit"
	"accountscan/pkg/report"
	"accountscan/pkg/sherlock"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// maxConcurrentClassifications bounds in-flight classification
	// requests independent of the rate limiter, so a burst of items
	// cannot starve cooperating work in the hosting process.
	maxConcurrentClassifications = 5

	// contentTruncateLen bounds the content stored in reports. The
	// untruncated body is still what gets classified.
	contentTruncateLen = 500

	timestampLayout = "2006-01-02 15:04:05"
)

// Result is the bundle a scan produces. A nil Sherlock or Reddit slice
// means that sub-scan did not run (or, for Reddit, fetched nothing); an
// empty non-nil slice means it ran and found nothing.
type Result struct {
	ScanID   string               `json:"scan_id"`
	Username string               `json:"username"`
	Mode     Mode                 `json:"mode"`
	Sherlock []sherlock.Account   `json:"sherlock,omitempty"`
	Reddit   []report.FlaggedItem `json:"reddit,omitempty"`
	Errors   []string             `json:"errors,omitempty"`
}

// Enumerator is the enumeration sub-scan consumed by the orchestrator.
type Enumerator interface {
	Available() bool
	Scan(ctx context.Context, username string, timeout time.Duration, verbose bool) ([]sherlock.Account, error)
}

// ContentFetcher is the content sub-scan's fetch side.
type ContentFetcher interface {
	FetchUserContent(ctx context.Context, username string, maxComments, maxPosts int, creds reddit.Credentials) []reddit.Item
}

// Classifier scores one text blob.
type Classifier interface {
	Classify(ctx context.Context, text, apiKey string) (perspective.Scores, error)
}

// Scanner runs account scans. It owns the shared result cache and the HTTP
// connection pool for the classification API, which is reused across calls
// and released by Close.
type Scanner struct {
	enumerator    Enumerator
	fetcher       ContentFetcher
	newClassifier func(*ratelimit.Limiter) Classifier
	cache         *cache.Cache[*Result]
	httpClient    *http.Client
	logger        *logger.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithEnumerator sets the enumeration adapter.
func WithEnumerator(e Enumerator) Option {
	return func(s *Scanner) { s.enumerator = e }
}

// WithFetcher sets the content fetcher.
func WithFetcher(f ContentFetcher) Option {
	return func(s *Scanner) { s.fetcher = f }
}

// WithClassifierFactory sets how per-scan classifier clients are built
// around the scan's rate limiter.
func WithClassifierFactory(f func(*ratelimit.Limiter) Classifier) Option {
	return func(s *Scanner) { s.newClassifier = f }
}

// WithCache sets the result cache.
func WithCache(c *cache.Cache[*Result]) Option {
	return func(s *Scanner) { s.cache = c }
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// New creates a Scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		cache:      cache.New[*Result](),
		httpClient: &http.Client{},
		logger:     logger.NewLogger(logrus.InfoLevel),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.enumerator == nil {
		s.enumerator = sherlock.NewScanner(sherlock.WithLogger(s.logger))
	}
	if s.fetcher == nil {
		s.fetcher = reddit.New(reddit.WithLogger(s.logger))
	}
	if s.newClassifier == nil {
		s.newClassifier = func(l *ratelimit.Limiter) Classifier {
			return perspective.New(l,
				perspective.WithHTTPClient(s.httpClient),
				perspective.WithLogger(s.logger))
		}
	}
	return s
}

// Close releases the shared HTTP connection pool.
func (s *Scanner) Close() {
	s.httpClient.CloseIdleConnections()
}

// SherlockAvailable reports whether the enumeration sub-scan can run,
// for callers that pre-validate before invoking a scan.
func (s *Scanner) SherlockAvailable() bool {
	return s.enumerator.Available()
}

// Scan runs the sub-scans selected by cfg.Mode and returns the merged
// bundle. Sub-scan failures degrade into the bundle's error list; the
// returned error is reserved for configuration errors, unsatisfiable
// modes, and context cancellation.
func (s *Scanner) Scan(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	safe := SanitizeUsername(cfg.Username)
	key := cfg.CacheKey()
	if cached, ok := s.cache.Get(key); ok {
		s.logger.WithScan(cfg.Username, string(cfg.Mode)).Info("Returning cached scan result")
		return cached, nil
	}

	result := &Result{
		ScanID:   uuid.NewString(),
		Username: cfg.Username,
		Mode:     cfg.Mode,
	}

	runSherlock := false
	if cfg.Mode.includesSherlock() {
		if s.enumerator.Available() {
			runSherlock = true
		} else if cfg.Mode == ModeSherlock {
			return nil, pkgerrors.ErrSherlockNotInstalled
		} else {
			result.Errors = append(result.Errors, "sherlock not installed, enumeration skipped")
		}
	}

	runReddit := false
	if cfg.Mode.includesReddit() {
		if cfg.Reddit.Complete() && cfg.PerspectiveKey != "" {
			runReddit = true
		} else if cfg.Mode == ModeReddit {
			return nil, pkgerrors.ErrRedditNotConfigured
		} else {
			result.Errors = append(result.Errors, "reddit credentials not configured, content scan skipped")
		}
	}

	if !runSherlock && !runReddit {
		return nil, pkgerrors.ErrNoScanModes
	}

	limiter := cfg.Limiter
	if limiter == nil {
		var err error
		limiter, err = ratelimit.NewLimiter(cfg.RatePerMin)
		if err != nil {
			return nil, pkgerrors.NewConfigError("rate_per_min", cfg.RatePerMin, err.Error())
		}
	}

	s.logger.WithScan(cfg.Username, string(cfg.Mode)).Info("Scan started")

	// Both sub-scans run to completion independently; a failure in one
	// never cancels the other.
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	addError := func(source string, err error) {
		mu.Lock()
		defer mu.Unlock()
		result.Errors = append(result.Errors, pkgerrors.NewScanError(source, err).Error())
	}

	if runSherlock {
		wg.Add(1)
		go func() {
			defer wg.Done()
			accounts, err := s.enumerator.Scan(ctx, safe, cfg.SherlockTimeout, cfg.Verbose)
			if err != nil {
				if ctx.Err() == nil {
					addError("sherlock", err)
				}
				return
			}
			mu.Lock()
			result.Sherlock = accounts
			mu.Unlock()
		}()
	}

	if runReddit {
		wg.Add(1)
		go func() {
			defer wg.Done()
			flagged, err := s.scanReddit(ctx, cfg, limiter)
			if err != nil {
				if ctx.Err() == nil {
					addError("reddit", err)
				}
				return
			}
			mu.Lock()
			result.Reddit = flagged
			mu.Unlock()
		}()
	}

	wg.Wait()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	s.writeReports(cfg, result)
	s.cache.Set(key, result)

	s.logger.WithScan(cfg.Username, string(cfg.Mode)).WithFields(logrus.Fields{
		"accounts": len(result.Sherlock),
		"flagged":  len(result.Reddit),
		"errors":   len(result.Errors),
	}).Info("Scan completed")
	return result, nil
}

// scanReddit fetches the user's content and classifies it with bounded
// concurrency. Scores stay index-aligned with their items. A nil return
// with nil error means there was nothing to analyze.
func (s *Scanner) scanReddit(ctx context.Context, cfg Config, limiter *ratelimit.Limiter) ([]report.FlaggedItem, error) {
	items := s.fetcher.FetchUserContent(ctx, cfg.Username, cfg.Comments, cfg.Posts, cfg.Reddit)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if items == nil {
		return nil, nil
	}

	s.logger.WithFields(logger.Fields{
		"username": cfg.Username,
		"items":    len(items),
	}).Info("Analyzing fetched content")

	classifier := s.newClassifier(limiter)
	scoresByIndex := make([]perspective.Scores, len(items))
	sem := make(chan struct{}, maxConcurrentClassifications)

	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			scores, err := classifier.Classify(ctx, text, cfg.PerspectiveKey)
			// Release before any follow-up work so the slot is never
			// held longer than the outbound call itself.
			<-sem
			if err != nil {
				return // cancellation; checked after the wait
			}
			scoresByIndex[i] = scores
		}(i, items[i].Body)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	flagged := []report.FlaggedItem{}
	for i, item := range items {
		scores := scoresByIndex[i]
		if !meetsThreshold(scores, cfg.Threshold) {
			continue
		}
		flagged = append(flagged, report.FlaggedItem{
			Timestamp: item.Created.Format(timestampLayout),
			Kind:      string(item.Kind),
			Subreddit: item.Subreddit,
			Content:   truncate(item.Body, contentTruncateLen),
			Scores:    scores,
		})
	}
	return flagged, nil
}

func (s *Scanner) writeReports(cfg Config, result *Result) {
	if len(result.Reddit) > 0 {
		if err := report.WriteFlagged(cfg.OutputReddit, result.Reddit); err != nil {
			s.logger.WithError(err).Error("Failed to write flagged-content report")
			result.Errors = append(result.Errors, pkgerrors.NewScanError("report", err).Error())
		} else {
			s.logger.WithFields(logger.Fields{
				"path":    cfg.OutputReddit,
				"flagged": len(result.Reddit),
			}).Info("Saved flagged-content report")
		}
	}
	if len(result.Sherlock) > 0 {
		if err := report.WriteAccounts(cfg.OutputSherlock, result.Sherlock); err != nil {
			s.logger.WithError(err).Error("Failed to write accounts report")
			result.Errors = append(result.Errors, pkgerrors.NewScanError("report", err).Error())
		} else {
			s.logger.WithFields(logger.Fields{
				"path":     cfg.OutputSherlock,
				"accounts": len(result.Sherlock),
			}).Info("Saved enumerated-accounts report")
		}
	}
}

// meetsThreshold reports whether any attribute score reaches the threshold.
// An empty score map means classification was unavailable and never flags.
func meetsThreshold(scores perspective.Scores, threshold float64) bool {
	for _, score := range scores {
		if score >= threshold {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Process-wide default scanner, built lazily for callers that share one
// instance across scan invocations.
var (
	defaultMu      sync.Mutex
	defaultScanner *Scanner
)

// Default returns the lazily constructed process-wide Scanner.
func Default() *Scanner {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultScanner == nil {
		defaultScanner = New()
	}
	return defaultScanner
}

// ShutdownDefault releases the default scanner's resources, if it was
// ever constructed.
func ShutdownDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultScanner != nil {
		defaultScanner.Close()
		defaultScanner = nil
	}
}
