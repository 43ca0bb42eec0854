package ratelimit

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventLimiterEnforcesCooldownBetweenConsecutiveCalls(t *testing.T) {
	l := NewEventLimiter(EventConfig{MaxPerWindow: 5, WindowDuration: 5 * time.Second, CooldownDuration: 500 * time.Millisecond})

	assert.True(t, l.Allow("conn-1", "move"), "first call always succeeds")
	assert.False(t, l.Allow("conn-1", "move"), "immediate second call is within the cooldown window")
}

func TestEventLimiterTracksEachKindIndependently(t *testing.T) {
	l := NewEventLimiter(EventConfig{MaxPerWindow: 5, WindowDuration: 5 * time.Second, CooldownDuration: 500 * time.Millisecond})

	assert.True(t, l.Allow("conn-1", "move"))
	assert.True(t, l.Allow("conn-1", "shoot"), "a different event kind has its own cooldown bucket")
}

func TestEventLimiterRejectsBeyondMaxPerWindowOnceCooldownClears(t *testing.T) {
	l := NewEventLimiter(EventConfig{MaxPerWindow: 2, WindowDuration: 5 * time.Second, CooldownDuration: time.Millisecond})

	assert.True(t, l.Allow("conn-1", "move"))
	time.Sleep(2 * time.Millisecond)
	assert.True(t, l.Allow("conn-1", "move"))
	time.Sleep(2 * time.Millisecond)
	assert.False(t, l.Allow("conn-1", "move"), "window already holds MaxPerWindow events")
}

func TestEventLimiterForgetClearsConnectionState(t *testing.T) {
	l := NewEventLimiter(EventConfig{MaxPerWindow: 1, WindowDuration: 5 * time.Second, CooldownDuration: time.Millisecond})

	assert.True(t, l.Allow("conn-1", "move"))
	l.Forget("conn-1")
	assert.True(t, l.Allow("conn-1", "move"), "forgetting a connection resets its buckets")
}

func TestIPLimiterAllowsWithinBurstThenRejects(t *testing.T) {
	l := NewIPLimiter(IPConfig{RequestsPerSecond: 1, Burst: 2, CleanupInterval: time.Minute})
	defer l.Stop()

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
}

func TestIPLimiterTracksDistinctIPsIndependently(t *testing.T) {
	l := NewIPLimiter(IPConfig{RequestsPerSecond: 1, Burst: 1, CleanupInterval: time.Minute})
	defer l.Stop()

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"))
}

func TestClientIPPrefersForwardedHeaderOverRemoteAddr(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	assert.Equal(t, "203.0.113.9", ClientIP(req))
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	assert.Equal(t, "10.0.0.1", ClientIP(req))
}

func TestConnLimiterCapsConcurrentConnectionsPerIP(t *testing.T) {
	c := NewConnLimiter(2)

	assert.True(t, c.Allow("1.2.3.4"))
	assert.True(t, c.Allow("1.2.3.4"))
	assert.False(t, c.Allow("1.2.3.4"))

	c.Release("1.2.3.4")
	assert.True(t, c.Allow("1.2.3.4"), "releasing a slot frees capacity for the next attempt")
}
