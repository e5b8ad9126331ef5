package sherlock

import (
	"encoding/json"
	"os"
	"strings"
)

// resultEntry is one platform record in sherlock's JSON result file.
type resultEntry struct {
	URLUser       string   `json:"url_user"`
	Status        string   `json:"status"`
	ResponseTimeS *float64 `json:"response_time_s"`
}

// ParseResultFile reads sherlock's structured JSON result file and returns
// the accounts whose status classifies as claimed.
func ParseResultFile(path string) ([]Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]resultEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	var accounts []Account
	for platform, e := range entries {
		if !IsClaimed(e.Status) {
			continue
		}
		accounts = append(accounts, Account{
			Platform:     platform,
			URL:          e.URLUser,
			Status:       e.Status,
			ResponseTime: e.ResponseTimeS,
		})
	}
	return Dedupe(accounts), nil
}

// ParseText parses sherlock's free-text stdout, one line per match:
//
//	[+] GitHub: https://github.com/user
//	GitHub: https://github.com/user
//
// Lines without both a URL marker and a platform separator are skipped.
// In this mode sherlock only prints positive matches, so every parsed line
// is treated as claimed.
func ParseText(text string) []Account {
	var accounts []Account
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "://") {
			continue
		}
		// Drop a leading "[timestamp]: " style prefix if present.
		if _, rest, found := strings.Cut(line, "]: "); found {
			line = rest
		}
		platform, url, found := strings.Cut(line, ": ")
		if !found {
			continue
		}
		url = strings.TrimSpace(url)
		platform = strings.Trim(platform, " +[]")
		if !strings.HasPrefix(url, "http") {
			continue
		}
		accounts = append(accounts, Account{
			Platform: platform,
			URL:      url,
			Status:   "Claimed",
		})
	}
	return Dedupe(accounts)
}

// IsClaimed classifies a sherlock status string. A status counts as claimed
// unless it starts with "not" or mentions one of the negative markers.
// The substring match is loose on purpose; it mirrors what the tool's
// own reporting treats as a miss.
func IsClaimed(status string) bool {
	s := strings.ToLower(status)
	return !(strings.HasPrefix(s, "not") ||
		strings.Contains(s, "available") ||
		strings.Contains(s, "invalid") ||
		strings.Contains(s, "unchecked") ||
		strings.Contains(s, "unknown"))
}

// Dedupe collapses accounts sharing a (lowercased platform, URL) pair,
// keeping the first occurrence.
func Dedupe(accounts []Account) []Account {
	seen := make(map[string]bool, len(accounts))
	out := accounts[:0]
	for _, a := range accounts {
		key := strings.ToLower(a.Platform) + "\x00" + a.URL
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}
