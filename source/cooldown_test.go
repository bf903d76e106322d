package source

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCooldown(intervals ...time.Duration) (*Cooldown, *time.Time) {
	c := NewCooldown(intervals...)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCooldownAllowsByDefault(t *testing.T) {
	c, _ := newTestCooldown()
	assert.True(t, c.Allow())
}

func TestCooldownHoldsAfterLimit(t *testing.T) {
	c, now := newTestCooldown(10*time.Second, 20*time.Second)

	c.Limited(http.StatusTooManyRequests)
	assert.False(t, c.Allow())

	*now = now.Add(9 * time.Second)
	assert.False(t, c.Allow())

	*now = now.Add(2 * time.Second)
	assert.True(t, c.Allow(), "the hold expires on its own")
}

func TestCooldownEscalates(t *testing.T) {
	c, now := newTestCooldown(10*time.Second, 20*time.Second)

	c.Limited(http.StatusTooManyRequests)
	first := c.RetryAt()
	*now = first
	c.Limited(http.StatusTooManyRequests)
	second := c.RetryAt()

	assert.Equal(t, 20*time.Second, second.Sub(first), "repeat offenses hold longer")

	// the ladder tops out at its last rung
	*now = second
	c.Limited(http.StatusForbidden)
	assert.Equal(t, 20*time.Second, c.RetryAt().Sub(second))
}

func TestCooldownRecoveredResetsLadder(t *testing.T) {
	c, now := newTestCooldown(10*time.Second, 20*time.Second)

	c.Limited(http.StatusTooManyRequests)
	*now = now.Add(11 * time.Second)
	c.Recovered()
	require.True(t, c.Allow())

	c.Limited(http.StatusTooManyRequests)
	assert.Equal(t, 10*time.Second, c.RetryAt().Sub(*now), "recovery restarts from the first rung")
}

func TestIsRateLimitStatus(t *testing.T) {
	assert.True(t, IsRateLimitStatus(http.StatusTooManyRequests))
	assert.True(t, IsRateLimitStatus(http.StatusForbidden))
	assert.False(t, IsRateLimitStatus(http.StatusNotFound))
	assert.False(t, IsRateLimitStatus(http.StatusOK))
}
