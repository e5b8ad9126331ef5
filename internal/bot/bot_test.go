package bot

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"accountscan/pkg/perspective"
	"accountscan/pkg/report"
	"accountscan/pkg/scanner"
	"accountscan/pkg/sherlock"
)

func TestCooldownTracker(t *testing.T) {
	current := time.Unix(1700000000, 0)
	tracker := NewCooldownTracker(30 * time.Second)
	tracker.now = func() time.Time { return current }

	_, ok := tracker.Check("user1")
	assert.True(t, ok, "first command should pass")

	remaining, ok := tracker.Check("user1")
	assert.False(t, ok, "second command inside the window should be blocked")
	assert.Equal(t, 30*time.Second, remaining)

	_, ok = tracker.Check("user2")
	assert.True(t, ok, "cooldowns are per user")

	current = current.Add(29 * time.Second)
	remaining, ok = tracker.Check("user1")
	assert.False(t, ok)
	assert.Equal(t, time.Second, remaining)

	current = current.Add(time.Second)
	_, ok = tracker.Check("user1")
	assert.True(t, ok, "command after the window should pass")
}

func TestCooldownTrackerPrunesStaleEntries(t *testing.T) {
	current := time.Unix(1700000000, 0)
	tracker := NewCooldownTracker(30 * time.Second)
	tracker.now = func() time.Time { return current }

	for i := 0; i < cleanupThreshold+1; i++ {
		tracker.Check(fmt.Sprintf("user%d", i))
	}
	current = current.Add(time.Minute)
	tracker.Check("fresh")
	assert.LessOrEqual(t, len(tracker.last), 2, "stale entries should be pruned")
}

func TestParseCommand(t *testing.T) {
	testCases := []struct {
		content  string
		command  string
		argCount int
	}{
		{"!scan someone", "scan", 1},
		{"!scan someone reddit", "scan", 2},
		{"!HELP", "help", 0},
		{"!", "", 0},
		{"!health  ", "health", 0},
	}
	for _, tc := range testCases {
		command, args := parseCommand(tc.content)
		assert.Equal(t, tc.command, command, tc.content)
		assert.Len(t, args, tc.argCount, tc.content)
	}
}

func TestBuildResultEmbed(t *testing.T) {
	clean := &scanner.Result{
		Username: "testuser",
		Mode:     scanner.ModeBoth,
		Sherlock: []sherlock.Account{{Platform: "GitHub", URL: "https://github.com/testuser"}},
		Reddit:   []report.FlaggedItem{},
	}
	embed := buildResultEmbed(clean)
	assert.Equal(t, colorClean, embed.Color)
	assert.Contains(t, embed.Title, "testuser")
	assert.Len(t, embed.Fields, 3)

	flagged := &scanner.Result{
		Username: "testuser",
		Mode:     scanner.ModeReddit,
		Reddit: []report.FlaggedItem{
			{Subreddit: "x", Content: "bad", Scores: perspective.Scores{"TOXICITY": 0.9}},
		},
		Errors: []string{"sherlock not installed, enumeration skipped"},
	}
	embed = buildResultEmbed(flagged)
	assert.Equal(t, colorFlagged, embed.Color)
	assert.Len(t, embed.Fields, 4)
	assert.Equal(t, "Warnings", embed.Fields[3].Name)
}

func TestTruncateFieldCapsLongWarnings(t *testing.T) {
	long := strings.Repeat("e", 3000)
	got := truncateField(long)
	assert.Len(t, got, maxFieldLen)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestFormatDetailsChunking(t *testing.T) {
	result := &scanner.Result{Username: "testuser"}
	for i := 0; i < 200; i++ {
		result.Sherlock = append(result.Sherlock, sherlock.Account{
			Platform: "Platform" + strings.Repeat("x", 20),
			URL:      "https://example.com/" + strings.Repeat("y", 30),
		})
	}

	chunks := formatDetails(result)
	assert.Greater(t, len(chunks), 1, "200 accounts should not fit one message")
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), maxMessageLen, "chunk %d over limit", i)
	}
	assert.Contains(t, chunks[0], "**Accounts**")
}

func TestFormatDetailsEmptyResult(t *testing.T) {
	assert.Empty(t, formatDetails(&scanner.Result{Username: "testuser"}))
}

func TestChunkLinesHardSplitsOversizedLine(t *testing.T) {
	line := strings.Repeat("z", 450)
	chunks := chunkLines([]string{line}, 200)
	assert.Len(t, chunks, 3)
	assert.Equal(t, 200, len(chunks[0]))
	assert.Equal(t, 50, len(chunks[2]))
}
