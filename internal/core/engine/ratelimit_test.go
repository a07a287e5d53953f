package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(perMinute, perDay int) (*RateLimiter, *testClock) {
	clock := &testClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := NewRateLimiter(perMinute, perDay)
	limiter.Clock = clock.Now
	return limiter, clock
}

func TestRateLimiterMinuteWindow(t *testing.T) {
	limiter, clock := newTestLimiter(3, 100)

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Allow().Allowed)
		limiter.Record()
		clock.Advance(10 * time.Second)
	}

	decision := limiter.Allow()
	require.False(t, decision.Allowed)
	require.Equal(t, ScopeMinute, decision.Scope)
	// oldest at t0, now t0+30s
	require.Equal(t, 30*time.Second, decision.RetryAfter)

	clock.Advance(30*time.Second + time.Millisecond)
	require.True(t, limiter.Allow().Allowed)
	require.Equal(t, 2, limiter.Minute.Len())
}

func TestRateLimiterDayWindow(t *testing.T) {
	limiter, clock := newTestLimiter(10, 2)

	limiter.Record()
	clock.Advance(2 * time.Minute)
	limiter.Record()
	clock.Advance(2 * time.Minute)

	decision := limiter.Allow()
	require.False(t, decision.Allowed)
	require.Equal(t, ScopeDay, decision.Scope)
	require.Equal(t, 24*time.Hour-4*time.Minute, decision.RetryAfter)
}

func TestRateLimiterAllowDoesNotRecord(t *testing.T) {
	limiter, _ := newTestLimiter(1, 1)

	for i := 0; i < 5; i++ {
		require.True(t, limiter.Allow().Allowed)
	}
	require.Equal(t, 0, limiter.Minute.Len())
	require.Equal(t, 0, limiter.Day.Len())
}

func TestRateLimiterUsage(t *testing.T) {
	limiter, clock := newTestLimiter(30, 1000)

	limiter.Record()
	limiter.Record()
	clock.Advance(90 * time.Second)
	limiter.Record()

	usage := limiter.Usage()
	require.Equal(t, 30, usage.Minute.Quota)
	require.Equal(t, 1, usage.Minute.Current)
	require.Equal(t, 29, usage.Minute.Remaining)
	require.Equal(t, 3, usage.Day.Current)
	require.Equal(t, 997, usage.Day.Remaining)
	// usage is read-only
	require.Equal(t, 3, limiter.Minute.Len())
}

func TestNewRateLimiterDefaults(t *testing.T) {
	limiter := NewRateLimiter(0, -1)
	require.Equal(t, DefaultPerMinute, limiter.Minute.Cap())
	require.Equal(t, DefaultPerDay, limiter.Day.Cap())
	require.Equal(t, time.Minute, limiter.Minute.Window())
	require.Equal(t, 24*time.Hour, limiter.Day.Window())
}

func TestNilRateLimiterAllows(t *testing.T) {
	var limiter *RateLimiter
	require.True(t, limiter.Allow().Allowed)
	limiter.Record()
}
