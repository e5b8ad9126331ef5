// Package bot exposes account scans as Discord chat commands.
package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"accountscan/internal/config"
	pkgerrors "accountscan/pkg/errors"
	"accountscan/pkg/ratelimit"
	"accountscan/pkg/report"
	"accountscan/pkg/scanner"
)

const (
	commandPrefix = "!"

	// scanCooldown is the per-user wait between !scan invocations.
	scanCooldown = 30 * time.Second

	// scanTimeout bounds one chat-triggered scan end to end.
	scanTimeout = 5 * time.Minute

	maxUsernameLen = 50

	// maxMessageLen keeps chunked output under Discord's 2000-char cap
	// with headroom for code fences.
	maxMessageLen = 1900

	colorClean   = 0x2ECC71
	colorFlagged = 0xFF0000
	colorInfo    = 0x00BFFF
)

// Bot wires a Discord session to the scanner. All !scan invocations share
// one classification rate limiter and the scanner's result cache.
type Bot struct {
	session   *discordgo.Session
	cfg       *config.Config
	scanner   *scanner.Scanner
	limiter   *ratelimit.Limiter
	cooldowns *CooldownTracker
	cancel    context.CancelFunc
}

// New creates a Bot around an existing scanner instance.
func New(cfg *config.Config, scn *scanner.Scanner) (*Bot, error) {
	if !cfg.HasDiscordConfig() {
		return nil, fmt.Errorf("discord_token not set")
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	limiter, err := ratelimit.NewLimiter(cfg.RatePerMin)
	if err != nil {
		return nil, fmt.Errorf("invalid rate_per_min: %w", err)
	}

	b := &Bot{
		session:   session,
		cfg:       cfg,
		scanner:   scn,
		limiter:   limiter,
		cooldowns: NewCooldownTracker(scanCooldown),
	}
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Infof("Bot logged in as %s#%s", r.User.Username, r.User.Discriminator)
	})
	return b, nil
}

// Run opens the session and blocks until ctx is cancelled or an admin
// issues !shutdown. New report files under the scans directory are
// announced to the log channel while running.
func (b *Bot) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	b.cancel = cancel

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	defer b.session.Close()

	if b.cfg.LogChannelID != "" {
		go b.watchReports(ctx)
	}

	log.Info("Bot is running")
	<-ctx.Done()
	log.Info("Bot shutting down")
	return nil
}

func (b *Bot) watchReports(ctx context.Context) {
	if err := os.MkdirAll(b.cfg.ScansDir, 0755); err != nil {
		log.Errorf("Failed to create scans directory %s: %v", b.cfg.ScansDir, err)
		return
	}
	report.WatchDirectory(ctx, b.cfg.ScansDir, func(path string) {
		msg := fmt.Sprintf("New report written: `%s`", filepath.Base(path))
		if _, err := b.session.ChannelMessageSend(b.cfg.LogChannelID, msg); err != nil {
			log.Errorf("Failed to announce report %s: %v", path, err)
		}
	})
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !strings.HasPrefix(m.Content, commandPrefix) {
		return
	}
	if b.cfg.DiscordChannelID != "" && m.ChannelID != b.cfg.DiscordChannelID {
		return
	}

	command, args := parseCommand(m.Content)
	switch command {
	case "scan":
		b.handleScan(s, m, args)
	case "health":
		b.handleHealth(s, m)
	case "help":
		b.handleHelp(s, m)
	case "shutdown":
		b.handleShutdown(s, m)
	}
}

// parseCommand splits "!scan user reddit" into ("scan", ["user", "reddit"]).
func parseCommand(content string) (string, []string) {
	fields := strings.Fields(strings.TrimPrefix(content, commandPrefix))
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

func (b *Bot) handleScan(s *discordgo.Session, m *discordgo.MessageCreate, args []string) {
	if !b.canModerate(s, m) {
		b.reply(s, m, "You need the Moderate Members permission to run scans.")
		return
	}
	if len(args) < 1 {
		b.reply(s, m, "Usage: `!scan <username> [sherlock|reddit|both]`")
		return
	}

	username := args[0]
	if len(username) > maxUsernameLen {
		b.reply(s, m, fmt.Sprintf("Username too long (max %d characters).", maxUsernameLen))
		return
	}

	mode := scanner.ModeBoth
	if len(args) > 1 {
		parsed, err := scanner.ParseMode(args[1])
		if err != nil {
			b.reply(s, m, "Unknown mode. Use `sherlock`, `reddit` or `both`.")
			return
		}
		mode = parsed
	}

	if remaining, ok := b.cooldowns.Check(m.Author.ID); !ok {
		b.reply(s, m, fmt.Sprintf("Slow down, try again in %d seconds.", int(remaining.Seconds())+1))
		return
	}

	b.reply(s, m, fmt.Sprintf("Scanning `%s` (mode: %s), this can take a few minutes...", username, mode))

	go b.runScan(s, m, username, mode)
}

func (b *Bot) runScan(s *discordgo.Session, m *discordgo.MessageCreate, username string, mode scanner.Mode) {
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	cfg := b.scanConfig(username, mode)
	result, err := b.scanner.Scan(ctx, cfg)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			b.reply(s, m, fmt.Sprintf("Scan of `%s` timed out after %s.", username, scanTimeout))
		case errors.Is(err, pkgerrors.ErrSherlockNotInstalled):
			b.reply(s, m, "Sherlock is not installed on this host.")
		case errors.Is(err, pkgerrors.ErrRedditNotConfigured):
			b.reply(s, m, "Reddit scanning is not configured on this host.")
		default:
			log.Errorf("Scan of %s failed: %v", username, err)
			b.reply(s, m, fmt.Sprintf("Scan of `%s` failed: %v", username, err))
		}
		return
	}

	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, buildResultEmbed(result)); err != nil {
		log.Errorf("Failed to send result embed: %v", err)
	}
	for _, chunk := range formatDetails(result) {
		if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
			log.Errorf("Failed to send result details: %v", err)
			return
		}
	}
}

// scanConfig builds the per-scan configuration from bot settings. Report
// paths are namespaced under the scans directory per target user.
func (b *Bot) scanConfig(username string, mode scanner.Mode) scanner.Config {
	safe := scanner.SanitizeUsername(username)
	cfg := scanner.DefaultConfig(username)
	cfg.Mode = mode
	cfg.PerspectiveKey = b.cfg.PerspectiveAPIKey
	cfg.Reddit = b.cfg.RedditCredentials()
	cfg.Comments = b.cfg.MaxComments
	cfg.Posts = b.cfg.MaxPosts
	cfg.Threshold = b.cfg.ToxicityThreshold
	cfg.RatePerMin = b.cfg.RatePerMin
	cfg.SherlockTimeout = time.Duration(b.cfg.SherlockTimeout) * time.Second
	cfg.OutputReddit = filepath.Join(b.cfg.ScansDir, safe+"_reddit.csv")
	cfg.OutputSherlock = filepath.Join(b.cfg.ScansDir, safe+"_sherlock.json")
	cfg.Limiter = b.limiter
	return cfg
}

func (b *Bot) handleHealth(s *discordgo.Session, m *discordgo.MessageCreate) {
	embed := &discordgo.MessageEmbed{
		Title: "Scanner health",
		Color: colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Gateway latency", Value: s.HeartbeatLatency().Round(time.Millisecond).String(), Inline: true},
			{Name: "Sherlock", Value: availability(b.scanner.SherlockAvailable()), Inline: true},
			{Name: "Reddit + Perspective", Value: availability(b.cfg.HasRedditConfig()), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if _, err := s.ChannelMessageSendEmbed(m.ChannelID, embed); err != nil {
		log.Errorf("Failed to send health embed: %v", err)
	}
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}

func (b *Bot) handleHelp(s *discordgo.Session, m *discordgo.MessageCreate) {
	help := strings.Join([]string{
		"**Commands**",
		"`!scan <username> [sherlock|reddit|both]` - scan an account (moderators only)",
		"`!health` - show which scan sources are available",
		"`!help` - this message",
		"`!shutdown` - stop the bot (admins only)",
	}, "\n")
	b.reply(s, m, help)
}

func (b *Bot) handleShutdown(s *discordgo.Session, m *discordgo.MessageCreate) {
	if !b.cfg.IsAdmin(m.Author.ID) {
		b.reply(s, m, "Only admins can shut the bot down.")
		return
	}
	b.reply(s, m, "Shutting down.")
	log.Infof("Shutdown requested by %s", m.Author.ID)
	if b.cancel != nil {
		b.cancel()
	}
}

func (b *Bot) canModerate(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	if b.cfg.IsAdmin(m.Author.ID) {
		return true
	}
	perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID)
	if err != nil {
		log.Errorf("Failed to resolve permissions for %s: %v", m.Author.ID, err)
		return false
	}
	return perms&discordgo.PermissionModerateMembers != 0
}

func (b *Bot) reply(s *discordgo.Session, m *discordgo.MessageCreate, content string) {
	if _, err := s.ChannelMessageSend(m.ChannelID, content); err != nil {
		log.Errorf("Failed to send message: %v", err)
	}
}
