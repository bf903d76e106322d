package source

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"
)

// ErrRateLimited is returned for tiles requested while the server's
// rate-limit cooldown is active
var ErrRateLimited = errors.New("source: rate limited by server")

// defaultCooldownLadder escalates hold times on repeated rate limiting.
// Tiles are re-requested naturally as the user pans, so the holds stay
// short compared to a batch downloader's.
var defaultCooldownLadder = []time.Duration{
	5 * time.Second,
	15 * time.Second,
	30 * time.Second,
	time.Minute,
}

// Cooldown tracks rate-limit responses from a tile server and holds off
// further requests until the retry time passes, escalating the hold on
// each repeat. A successful response resets the ladder.
type Cooldown struct {
	mu        sync.Mutex
	intervals []time.Duration
	attempt   int
	until     time.Time

	now func() time.Time
}

// NewCooldown creates a cooldown with the given hold ladder; no
// intervals means the default ladder
func NewCooldown(intervals ...time.Duration) *Cooldown {
	if len(intervals) == 0 {
		intervals = defaultCooldownLadder
	}
	return &Cooldown{intervals: intervals, now: time.Now}
}

// IsRateLimitStatus reports whether a status code signals rate limiting.
// Some tile servers answer 403 instead of 429 when throttling.
func IsRateLimitStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusForbidden
}

// Allow reports whether a request may go out
func (c *Cooldown) Allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.now().Before(c.until)
}

// Limited records a rate-limit response and extends the hold
func (c *Cooldown) Limited(statusCode int) {
	c.mu.Lock()
	step := c.attempt
	if step >= len(c.intervals) {
		step = len(c.intervals) - 1
	}
	hold := c.intervals[step]
	c.until = c.now().Add(hold)
	c.attempt++
	attempt := c.attempt
	c.mu.Unlock()

	log.Printf("[Source] rate limited (status %d, attempt %d), holding requests for %s",
		statusCode, attempt, hold)
}

// Recovered resets the ladder after a successful response
func (c *Cooldown) Recovered() {
	c.mu.Lock()
	wasLimited := c.attempt > 0
	c.attempt = 0
	c.until = time.Time{}
	c.mu.Unlock()

	if wasLimited {
		log.Printf("[Source] rate limit cleared")
	}
}

// RetryAt returns the time requests resume, or the zero time when not
// limited
func (c *Cooldown) RetryAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.until
}
