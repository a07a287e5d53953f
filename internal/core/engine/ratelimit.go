package engine

import (
	"time"

	"github.com/nemy/nemy/internal/core"
)

// Default quotas match the upstream basic subscription tier.
const (
	DefaultPerMinute = 30
	DefaultPerDay    = 1000
)

// Scope names the limiter that rejected a request.
type Scope string

const (
	ScopeMinute Scope = "minute"
	ScopeDay    Scope = "day"
	// ScopeRemote is the upstream provider's own limiter (HTTP 429).
	ScopeRemote Scope = "remote"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	Scope      Scope
	RetryAfter time.Duration
}

// RateLimiter enforces per-minute and per-day request quotas locally.
//
// It is not safe for concurrent use; callers serialize Allow and Record.
type RateLimiter struct {
	Minute *Ledger
	Day    *Ledger
	Clock  func() time.Time
}

// NewRateLimiter builds a limiter with the given quotas. Non-positive quotas
// fall back to the defaults.
func NewRateLimiter(perMinute, perDay int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = DefaultPerMinute
	}
	if perDay <= 0 {
		perDay = DefaultPerDay
	}
	return &RateLimiter{
		Minute: NewLedger(perMinute, time.Minute),
		Day:    NewLedger(perDay, 24*time.Hour),
	}
}

// Allow purges expired entries and checks both windows, minute first.
// It never records a request.
func (r *RateLimiter) Allow() Decision {
	if r == nil {
		return Decision{Allowed: true}
	}

	now := r.now()
	r.Minute.Purge(now)
	r.Day.Purge(now)

	if r.Minute.Full() {
		return Decision{Scope: ScopeMinute, RetryAfter: r.Minute.RetryAfter(now)}
	}
	if r.Day.Full() {
		return Decision{Scope: ScopeDay, RetryAfter: r.Day.RetryAfter(now)}
	}
	return Decision{Allowed: true}
}

// Record appends the current time to both ledgers.
func (r *RateLimiter) Record() {
	if r == nil {
		return
	}
	now := r.now()
	r.Minute.Append(now)
	r.Day.Append(now)
}

// Usage reports in-window counts without purging.
func (r *RateLimiter) Usage() core.RateLimitUsage {
	if r == nil {
		return core.RateLimitUsage{}
	}
	now := r.now()
	return core.RateLimitUsage{
		Minute: usage(r.Minute, now),
		Day:    usage(r.Day, now),
	}
}

func usage(l *Ledger, now time.Time) core.LedgerUsage {
	current := l.CountSince(now)
	remaining := l.Cap() - current
	if remaining < 0 {
		remaining = 0
	}
	return core.LedgerUsage{Quota: l.Cap(), Current: current, Remaining: remaining}
}

func (r *RateLimiter) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock()
	}
	return time.Now().UTC()
}
