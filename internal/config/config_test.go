package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := LoadWithOptions(ConfigOptions{
		ConfigPath: t.TempDir(),
		ConfigName: "accountscan",
	})
	require.NoError(t, err)

	assert.Equal(t, "./scans", cfg.ScansDir)
	assert.Equal(t, 50, cfg.MaxComments)
	assert.Equal(t, 20, cfg.MaxPosts)
	assert.Equal(t, 0.7, cfg.ToxicityThreshold)
	assert.Equal(t, float64(60), cfg.RatePerMin)
	assert.Equal(t, 60, cfg.SherlockTimeout)
	assert.False(t, cfg.HasDiscordConfig())
	assert.False(t, cfg.HasRedditConfig())
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `discord_token: token123
discord_channel_id: "42"
admin_ids:
  - "100"
  - "200"
perspective_api_key: pkey
reddit_client_id: rid
reddit_client_secret: rsecret
toxicity_threshold: 0.85
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "accountscan.yaml"), []byte(content), 0644))

	cfg, err := LoadWithOptions(ConfigOptions{
		ConfigPath: dir,
		ConfigName: "accountscan",
	})
	require.NoError(t, err)

	assert.Equal(t, "token123", cfg.DiscordToken)
	assert.Equal(t, "42", cfg.DiscordChannelID)
	assert.Equal(t, 0.85, cfg.ToxicityThreshold)
	assert.True(t, cfg.HasDiscordConfig())
	assert.True(t, cfg.HasRedditConfig())
	assert.True(t, cfg.IsAdmin("100"))
	assert.False(t, cfg.IsAdmin("300"))

	creds := cfg.RedditCredentials()
	assert.Equal(t, "rid", creds.ClientID)
	assert.True(t, creds.Complete())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ACCOUNTSCAN_DISCORD_TOKEN", "envtoken")
	t.Setenv("ACCOUNTSCAN_MAX_COMMENTS", "25")

	cfg, err := LoadWithOptions(ConfigOptions{
		ConfigPath: t.TempDir(),
		ConfigName: "accountscan",
		EnvPrefix:  "ACCOUNTSCAN",
	})
	require.NoError(t, err)

	assert.Equal(t, "envtoken", cfg.DiscordToken)
	assert.Equal(t, 25, cfg.MaxComments)
}

func TestDescribeRedactsSecrets(t *testing.T) {
	cfg := &Config{
		DiscordToken:       "supersecret",
		PerspectiveAPIKey:  "apikey",
		RedditClientID:     "public-id",
		RedditClientSecret: "clientsecret",
	}

	out := cfg.Describe()
	assert.NotContains(t, out, "supersecret")
	assert.NotContains(t, out, "apikey")
	assert.NotContains(t, out, "clientsecret")
	assert.Contains(t, out, "public-id")
	assert.True(t, strings.Contains(out, "[redacted]"))
}
