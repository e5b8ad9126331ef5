package scan

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"accountscan/pkg/logger"
	"accountscan/pkg/ratelimit"
	"accountscan/pkg/reddit"
	"accountscan/pkg/scanner"
)

// Config holds the scan command's flag values.
type Config struct {
	Mode              string
	PerspectiveAPIKey string
	ClientID          string
	ClientSecret      string
	UserAgent         string
	Comments          int
	Posts             int
	ToxicityThreshold float64
	RatePerMin        float64
	SherlockTimeout   time.Duration
	OutputReddit      string
	OutputSherlock    string
	Verbose           bool
}

// App represents the scan command's runtime.
type App struct {
	config  *Config
	logger  *logger.Logger
	scanner *scanner.Scanner
}

// NewApp creates a new application instance.
func NewApp(config *Config) *App {
	logLevel := logrus.InfoLevel
	if config.Verbose {
		logLevel = logrus.DebugLevel
	}
	appLogger := logger.NewLogger(logLevel)

	return &App{
		config:  config,
		logger:  appLogger,
		scanner: scanner.New(scanner.WithLogger(appLogger)),
	}
}

// Close cleans up application resources.
func (a *App) Close() {
	a.scanner.Close()
}

// Run executes one scan and prints the results.
func (a *App) Run(ctx context.Context, username string) error {
	cfg, err := a.scanConfig(username)
	if err != nil {
		return err
	}

	result, err := a.scanner.Scan(ctx, cfg)
	if err != nil {
		a.logger.WithError(err).Error("Scan failed")
		return err
	}

	printResult(result, cfg)
	return nil
}

func (a *App) scanConfig(username string) (scanner.Config, error) {
	mode, err := scanner.ParseMode(a.config.Mode)
	if err != nil {
		return scanner.Config{}, err
	}

	limiter, err := ratelimit.NewLimiter(a.config.RatePerMin)
	if err != nil {
		return scanner.Config{}, fmt.Errorf("invalid --rate-per-min: %w", err)
	}

	cfg := scanner.DefaultConfig(username)
	cfg.Mode = mode
	cfg.PerspectiveKey = valueOrEnv(a.config.PerspectiveAPIKey, "PERSPECTIVE_API_KEY")
	cfg.Reddit = reddit.Credentials{
		ClientID:     valueOrEnv(a.config.ClientID, "REDDIT_CLIENT_ID"),
		ClientSecret: valueOrEnv(a.config.ClientSecret, "REDDIT_CLIENT_SECRET"),
		UserAgent:    valueOrEnv(a.config.UserAgent, "REDDIT_USER_AGENT"),
	}
	cfg.Comments = a.config.Comments
	cfg.Posts = a.config.Posts
	cfg.Threshold = a.config.ToxicityThreshold
	cfg.SherlockTimeout = a.config.SherlockTimeout
	cfg.OutputReddit = a.config.OutputReddit
	cfg.OutputSherlock = a.config.OutputSherlock
	cfg.Verbose = a.config.Verbose
	cfg.Limiter = limiter
	return cfg, nil
}

func valueOrEnv(flagValue, envKey string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(envKey)
}

func printResult(result *scanner.Result, cfg scanner.Config) {
	fmt.Printf("Scan of %s (mode: %s)\n", result.Username, result.Mode)
	fmt.Println("========================")

	if result.Sherlock != nil {
		fmt.Printf("\nAccounts found: %d\n", len(result.Sherlock))
		for _, acct := range result.Sherlock {
			fmt.Printf("  %s: %s\n", acct.Platform, acct.URL)
		}
		if len(result.Sherlock) > 0 {
			fmt.Printf("Saved to %s\n", cfg.OutputSherlock)
		}
	}

	if result.Reddit != nil {
		fmt.Printf("\nFlagged items: %d\n", len(result.Reddit))
		for _, item := range result.Reddit {
			fmt.Printf("  [%s] r/%s %s: %s\n", item.Timestamp, item.Subreddit, item.Kind, item.Content)
		}
		if len(result.Reddit) > 0 {
			fmt.Printf("Saved to %s\n", cfg.OutputReddit)
		}
	}

	if len(result.Errors) > 0 {
		fmt.Println("\nWarnings:")
		for _, e := range result.Errors {
			fmt.Printf("  %s\n", e)
		}
	}
}

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	config := &Config{}

	scanCmd := &cobra.Command{
		Use:   "scan <username>",
		Short: "Scan one username across sources",
		Long:  `Scan a username: enumerate accounts across social platforms with sherlock and flag toxic Reddit activity via the Perspective API`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			app := NewApp(config)
			defer app.Close()

			// Setup graceful shutdown
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigChan
				app.logger.WithFields(logger.Fields{
					"signal": sig.String(),
				}).Info("Received shutdown signal")
				cancel()
			}()

			return app.Run(ctx, args[0])
		},
	}

	scanCmd.Flags().StringVarP(&config.Mode, "mode", "m", "both", "Scan mode: sherlock, reddit or both")
	scanCmd.Flags().StringVar(&config.PerspectiveAPIKey, "perspective-api-key", "", "Perspective API key (or PERSPECTIVE_API_KEY)")
	scanCmd.Flags().StringVar(&config.ClientID, "client-id", "", "Reddit API client id (or REDDIT_CLIENT_ID)")
	scanCmd.Flags().StringVar(&config.ClientSecret, "client-secret", "", "Reddit API client secret (or REDDIT_CLIENT_SECRET)")
	scanCmd.Flags().StringVar(&config.UserAgent, "user-agent", "", "Reddit API user agent (or REDDIT_USER_AGENT)")
	scanCmd.Flags().IntVar(&config.Comments, "comments", 50, "Maximum comments to fetch")
	scanCmd.Flags().IntVar(&config.Posts, "posts", 20, "Maximum posts to fetch")
	scanCmd.Flags().Float64Var(&config.ToxicityThreshold, "toxicity-threshold", 0.7, "Score at or above which content is flagged")
	scanCmd.Flags().Float64Var(&config.RatePerMin, "rate-per-min", 60, "Perspective API requests per minute")
	scanCmd.Flags().DurationVar(&config.SherlockTimeout, "sherlock-timeout", 60*time.Second, "Per-site sherlock timeout")
	scanCmd.Flags().StringVar(&config.OutputReddit, "output-reddit", "reddit_flagged.csv", "Flagged-content report path")
	scanCmd.Flags().StringVar(&config.OutputSherlock, "output-sherlock", "sherlock_results.json", "Enumerated-accounts report path")
	scanCmd.Flags().BoolVarP(&config.Verbose, "verbose", "v", false, "Enable verbose logging")

	return scanCmd
}
