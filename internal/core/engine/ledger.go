package engine

import "time"

// Ledger is a bounded, time-ordered record of request timestamps.
//
// Two independent eviction rules apply: entries older than the window are
// purged on demand, and appending to a full ledger evicts the oldest entry.
type Ledger struct {
	window  time.Duration
	entries []time.Time
	head    int
	size    int
}

// NewLedger creates a ledger holding at most capacity timestamps for window.
func NewLedger(capacity int, window time.Duration) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{
		window:  window,
		entries: make([]time.Time, capacity),
	}
}

// Window returns the ledger's sliding window length.
func (l *Ledger) Window() time.Duration {
	return l.window
}

// Cap returns the maximum number of entries.
func (l *Ledger) Cap() int {
	return len(l.entries)
}

// Len returns the number of entries currently held.
func (l *Ledger) Len() int {
	return l.size
}

// Full reports whether the ledger is at capacity.
func (l *Ledger) Full() bool {
	return l.size >= len(l.entries)
}

// Oldest returns the earliest entry, if any.
func (l *Ledger) Oldest() (time.Time, bool) {
	if l.size == 0 {
		return time.Time{}, false
	}
	return l.entries[l.head], true
}

// Purge drops entries that fell out of the window ending at now.
func (l *Ledger) Purge(now time.Time) {
	cutoff := now.Add(-l.window)
	for l.size > 0 && l.entries[l.head].Before(cutoff) {
		l.popOldest()
	}
}

// CountSince returns how many entries are still inside the window ending at now
// without mutating the ledger.
func (l *Ledger) CountSince(now time.Time) int {
	cutoff := now.Add(-l.window)
	count := 0
	for i := 0; i < l.size; i++ {
		if !l.at(i).Before(cutoff) {
			count++
		}
	}
	return count
}

// Append records t, evicting the oldest entry when the ledger is full.
// Timestamps earlier than the newest entry are clamped to keep order.
func (l *Ledger) Append(t time.Time) {
	if len(l.entries) == 0 {
		return
	}
	if l.size > 0 {
		if newest := l.at(l.size - 1); t.Before(newest) {
			t = newest
		}
	}
	if l.Full() {
		l.popOldest()
	}
	l.entries[(l.head+l.size)%len(l.entries)] = t
	l.size++
}

// RetryAfter returns the time until the oldest entry leaves the window,
// floored at zero.
func (l *Ledger) RetryAfter(now time.Time) time.Duration {
	oldest, ok := l.Oldest()
	if !ok {
		return 0
	}
	wait := oldest.Add(l.window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// Entries returns a copy of the entries, oldest first.
func (l *Ledger) Entries() []time.Time {
	out := make([]time.Time, l.size)
	for i := range out {
		out[i] = l.at(i)
	}
	return out
}

func (l *Ledger) at(i int) time.Time {
	return l.entries[(l.head+i)%len(l.entries)]
}

func (l *Ledger) popOldest() {
	l.entries[l.head] = time.Time{}
	l.head = (l.head + 1) % len(l.entries)
	l.size--
}
