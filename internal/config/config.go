// Package config loads application configuration from an optional
// accountscan.yaml file and ACCOUNTSCAN_* environment variables.
package config

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"accountscan/pkg/reddit"
)

// Config holds everything the bot and server need beyond per-scan flags.
type Config struct {
	DiscordToken     string  `mapstructure:"discord_token" yaml:"discord_token"`
	DiscordChannelID string  `mapstructure:"discord_channel_id" yaml:"discord_channel_id"`
	LogChannelID     string  `mapstructure:"log_channel_id" yaml:"log_channel_id"`
	AdminIDs         []string `mapstructure:"admin_ids" yaml:"admin_ids"`

	PerspectiveAPIKey string `mapstructure:"perspective_api_key" yaml:"perspective_api_key"`

	RedditClientID     string `mapstructure:"reddit_client_id" yaml:"reddit_client_id"`
	RedditClientSecret string `mapstructure:"reddit_client_secret" yaml:"reddit_client_secret"`
	RedditUserAgent    string `mapstructure:"reddit_user_agent" yaml:"reddit_user_agent"`

	ScansDir          string  `mapstructure:"scans_dir" yaml:"scans_dir"`
	MaxComments       int     `mapstructure:"max_comments" yaml:"max_comments"`
	MaxPosts          int     `mapstructure:"max_posts" yaml:"max_posts"`
	ToxicityThreshold float64 `mapstructure:"toxicity_threshold" yaml:"toxicity_threshold"`
	RatePerMin        float64 `mapstructure:"rate_per_min" yaml:"rate_per_min"`
	SherlockTimeout   int     `mapstructure:"sherlock_timeout" yaml:"sherlock_timeout"`
}

// ConfigOptions holds configuration loading options.
type ConfigOptions struct {
	ConfigPath string
	ConfigName string
	EnvPrefix  string
}

// Load reads configuration from the default search paths. A missing
// config file is fine since everything can come from the environment.
func Load() (*Config, error) {
	return LoadWithOptions(ConfigOptions{
		ConfigPath: "./config",
		ConfigName: "accountscan",
		EnvPrefix:  "ACCOUNTSCAN",
	})
}

// LoadWithOptions reads configuration with custom options.
func LoadWithOptions(opts ConfigOptions) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName(opts.ConfigName)

	configPaths := []string{opts.ConfigPath}
	if opts.ConfigPath != "./config" {
		configPaths = append(configPaths, "./config")
	}
	configPaths = append(configPaths, "/etc/accountscan", "$HOME/.accountscan")
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	if opts.EnvPrefix != "" {
		v.SetEnvPrefix(opts.EnvPrefix)
		v.AutomaticEnv()
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debugf("No config file '%s' found in paths %v, using environment only", opts.ConfigName, configPaths)
	} else {
		log.Infof("Loaded config file: %s", v.ConfigFileUsed())
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Every key needs a default registered so environment-only values
	// are visible to Unmarshal.
	v.SetDefault("discord_token", "")
	v.SetDefault("discord_channel_id", "")
	v.SetDefault("log_channel_id", "")
	v.SetDefault("admin_ids", []string{})
	v.SetDefault("perspective_api_key", "")
	v.SetDefault("reddit_client_id", "")
	v.SetDefault("reddit_client_secret", "")
	v.SetDefault("reddit_user_agent", "")
	v.SetDefault("scans_dir", "./scans")
	v.SetDefault("max_comments", 50)
	v.SetDefault("max_posts", 20)
	v.SetDefault("toxicity_threshold", 0.7)
	v.SetDefault("rate_per_min", 60)
	v.SetDefault("sherlock_timeout", 60)
}

// RedditCredentials bundles the reddit fields for the scanner.
func (c *Config) RedditCredentials() reddit.Credentials {
	return reddit.Credentials{
		ClientID:     c.RedditClientID,
		ClientSecret: c.RedditClientSecret,
		UserAgent:    c.RedditUserAgent,
	}
}

// HasRedditConfig reports whether a reddit content scan can run.
func (c *Config) HasRedditConfig() bool {
	return c.RedditClientID != "" && c.RedditClientSecret != "" && c.PerspectiveAPIKey != ""
}

// HasDiscordConfig reports whether the bot can start.
func (c *Config) HasDiscordConfig() bool {
	return c.DiscordToken != ""
}

// IsAdmin reports whether the given user ID is in the admin list.
func (c *Config) IsAdmin(userID string) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Describe renders the configuration as YAML with secrets redacted,
// for health and status output.
func (c *Config) Describe() string {
	redacted := *c
	redacted.DiscordToken = redactSecret(c.DiscordToken)
	redacted.PerspectiveAPIKey = redactSecret(c.PerspectiveAPIKey)
	redacted.RedditClientSecret = redactSecret(c.RedditClientSecret)

	out, err := yaml.Marshal(&redacted)
	if err != nil {
		return fmt.Sprintf("error rendering config: %v", err)
	}
	return string(out)
}

func redactSecret(s string) string {
	if s == "" {
		return ""
	}
	return "[redacted]"
}
