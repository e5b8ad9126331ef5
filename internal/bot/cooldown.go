package bot

import (
	"sync"
	"time"
)

// cleanupThreshold is the tracked-user count past which expired entries
// get pruned on the next check.
const cleanupThreshold = 256

// CooldownTracker enforces a per-user cooldown window between commands.
type CooldownTracker struct {
	mu     sync.Mutex
	last   map[string]time.Time
	window time.Duration
	now    func() time.Time
}

// NewCooldownTracker creates a tracker with the given window.
func NewCooldownTracker(window time.Duration) *CooldownTracker {
	return &CooldownTracker{
		last:   make(map[string]time.Time),
		window: window,
		now:    time.Now,
	}
}

// Check reports whether userID may run a command now. When allowed, the
// user's timestamp is stamped; otherwise the remaining wait is returned.
func (c *CooldownTracker) Check(userID string) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.last) > cleanupThreshold {
		c.pruneLocked(now)
	}

	if prev, ok := c.last[userID]; ok {
		if elapsed := now.Sub(prev); elapsed < c.window {
			return c.window - elapsed, false
		}
	}
	c.last[userID] = now
	return 0, true
}

func (c *CooldownTracker) pruneLocked(now time.Time) {
	for id, prev := range c.last {
		if now.Sub(prev) >= c.window {
			delete(c.last, id)
		}
	}
}
