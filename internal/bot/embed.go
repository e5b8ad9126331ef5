package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"accountscan/pkg/scanner"
)

// maxFieldLen is Discord's cap on one embed field value.
const maxFieldLen = 1024

// buildResultEmbed summarizes a scan bundle. Red means flagged content
// was found, green means a clean result.
func buildResultEmbed(result *scanner.Result) *discordgo.MessageEmbed {
	color := colorClean
	if len(result.Reddit) > 0 {
		color = colorFlagged
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Scan results: %s", result.Username),
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Mode", Value: string(result.Mode), Inline: true},
			{Name: "Accounts found", Value: fmt.Sprintf("%d", len(result.Sherlock)), Inline: true},
			{Name: "Flagged items", Value: fmt.Sprintf("%d", len(result.Reddit)), Inline: true},
		},
	}

	if len(result.Errors) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Warnings",
			Value: truncateField(strings.Join(result.Errors, "\n")),
		})
	}
	return embed
}

func truncateField(s string) string {
	if len(s) <= maxFieldLen {
		return s
	}
	return s[:maxFieldLen-3] + "..."
}

// formatDetails renders the account list and flagged items as messages,
// each under the Discord message limit.
func formatDetails(result *scanner.Result) []string {
	var lines []string

	if len(result.Sherlock) > 0 {
		lines = append(lines, "**Accounts**")
		for _, acct := range result.Sherlock {
			lines = append(lines, fmt.Sprintf("%s: <%s>", acct.Platform, acct.URL))
		}
	}

	if len(result.Reddit) > 0 {
		lines = append(lines, "**Flagged content**")
		for _, item := range result.Reddit {
			top, score := topScore(item.Scores)
			lines = append(lines, fmt.Sprintf("[%s] r/%s %s (%s %.2f): %s",
				item.Timestamp, item.Subreddit, item.Kind, top, score, item.Content))
		}
	}

	return chunkLines(lines, maxMessageLen)
}

func topScore(scores map[string]float64) (string, float64) {
	var topAttr string
	var top float64
	for attr, score := range scores {
		if topAttr == "" || score > top {
			topAttr = attr
			top = score
		}
	}
	return topAttr, top
}

// chunkLines packs lines into messages no longer than limit. A single
// oversized line is hard-split rather than dropped.
func chunkLines(lines []string, limit int) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, line := range lines {
		for len(line) > limit {
			flush()
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		if current.Len()+len(line)+1 > limit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()
	return chunks
}
