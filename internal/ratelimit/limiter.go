package ratelimit

import (
	"sync"
	"time"
)

// Defaults match the product limits: 10 messages a minute with a
// 100-an-hour ceiling.
const (
	DefaultShortLimit = 10
	DefaultLongLimit  = 100
)

// Decision is the outcome of an admission check. A denial is a normal
// return value, not an error.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type window struct {
	start time.Time
	count int
}

// roll resets the window once its full length has elapsed.
func (w *window) roll(now time.Time, length time.Duration) {
	if now.Sub(w.start) >= length {
		w.start = now
		w.count = 0
	}
}

func (w *window) remaining(now time.Time, length time.Duration) time.Duration {
	return length - now.Sub(w.start)
}

type entry struct {
	short window
	long  window
	seen  time.Time
}

// Limiter gates inbound messages per identity with two sliding windows:
// a short per-minute window and a long per-hour one. Admission is
// check-then-commit: both counters move only when both windows have
// room, so a denied message is never counted.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	shortLimit int
	shortLen   time.Duration
	longLimit  int
	longLen    time.Duration

	now func() time.Time
}

// New creates a limiter with the given window sizes.
func New(shortLimit int, shortLen time.Duration, longLimit int, longLen time.Duration) *Limiter {
	if shortLimit <= 0 {
		shortLimit = DefaultShortLimit
	}
	if shortLen <= 0 {
		shortLen = time.Minute
	}
	if longLimit <= 0 {
		longLimit = DefaultLongLimit
	}
	if longLen <= 0 {
		longLen = time.Hour
	}
	return &Limiter{
		entries:    make(map[string]*entry),
		shortLimit: shortLimit,
		shortLen:   shortLen,
		longLimit:  longLimit,
		longLen:    longLen,
		now:        time.Now,
	}
}

// Admit decides whether one more message from identity may be
// processed. When either window is at capacity the message is denied
// and RetryAfter carries the longer of the remaining window times, so
// a caller backing off that long is guaranteed a fresh window.
func (l *Limiter) Admit(identity string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[identity]
	if !ok {
		e = &entry{
			short: window{start: now},
			long:  window{start: now},
		}
		l.entries[identity] = e
	}
	e.seen = now

	e.short.roll(now, l.shortLen)
	e.long.roll(now, l.longLen)

	var retry time.Duration
	if e.short.count >= l.shortLimit {
		retry = e.short.remaining(now, l.shortLen)
	}
	if e.long.count >= l.longLimit {
		if r := e.long.remaining(now, l.longLen); r > retry {
			retry = r
		}
	}
	if retry > 0 {
		return Decision{RetryAfter: retry}
	}

	e.short.count++
	e.long.count++
	return Decision{Allowed: true}
}

// CleanupStale drops identities with no activity within maxAge and
// returns how many were removed.
func (l *Limiter) CleanupStale(maxAge time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-maxAge)
	removed := 0
	for id, e := range l.entries {
		if e.seen.Before(cutoff) {
			delete(l.entries, id)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of limiter state.
func (l *Limiter) Stats() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return map[string]int{
		"identities": len(l.entries),
	}
}
