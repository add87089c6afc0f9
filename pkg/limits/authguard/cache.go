package authguard

import (
	"sync"
	"time"
)

// attemptCache is a bounded, time-expiring record of recent attempts per key
// (a client IP or a hashed email). Entries older than the window are excluded
// from counts even while still physically present; they are dropped lazily on
// access and by evictions.
//
// The append-then-check sequence for one key is atomic: a single mutex covers
// the whole cache, which is sufficient at the call volumes seen on auth
// endpoints.
type attemptCache struct {
	mu         sync.Mutex
	window     time.Duration
	maxEntries int
	attempts   map[string][]time.Time

	now func() time.Time
}

func newAttemptCache(window time.Duration, maxEntries int) *attemptCache {
	return &attemptCache{
		window:     window,
		maxEntries: maxEntries,
		attempts:   make(map[string][]time.Time),
		now:        time.Now,
	}
}

// tryAcquire counts non-expired attempts for key; if the count is below
// limit, it records this attempt and reports true. Counting and recording
// happen under one lock so the limit can never be silently crossed.
func (c *attemptCache) tryAcquire(key string, limit int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	live := c.pruneLocked(key, now)
	if len(live) >= limit {
		return false
	}

	c.recordLocked(key, append(live, now))
	return true
}

// record appends an attempt for key without enforcing a limit.
func (c *attemptCache) record(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.recordLocked(key, append(c.pruneLocked(key, now), now))
}

// count returns the number of non-expired attempts for key.
func (c *attemptCache) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.pruneLocked(key, c.now())
	if len(live) == 0 {
		delete(c.attempts, key)
	} else {
		c.attempts[key] = live
	}
	return len(live)
}

// reset clears the window for key, typically after a successful
// authentication so legitimate users are not penalized by prior failures.
func (c *attemptCache) reset(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.attempts, key)
}

// size returns the number of tracked keys.
func (c *attemptCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.attempts)
}

// sweep removes every fully-expired entry and returns how many were dropped.
// Lazy per-key pruning handles the hot path; sweep reclaims keys that are
// never touched again.
func (c *attemptCache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.window)
	removed := 0
	for key, stamps := range c.attempts {
		if !stamps[len(stamps)-1].After(cutoff) {
			delete(c.attempts, key)
			removed++
		}
	}
	return removed
}

// pruneLocked returns the non-expired attempts for key. Caller holds the lock.
func (c *attemptCache) pruneLocked(key string, now time.Time) []time.Time {
	cutoff := now.Add(-c.window)
	stamps := c.attempts[key]

	// Timestamps are appended in order; find the first live one.
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}

// recordLocked stores the pruned-and-appended attempt list, evicting first if
// the cache is at capacity and key is new. Caller holds the lock.
func (c *attemptCache) recordLocked(key string, stamps []time.Time) {
	if _, exists := c.attempts[key]; !exists && len(c.attempts) >= c.maxEntries {
		c.evictLocked()
	}
	c.attempts[key] = stamps
}

// evictLocked makes room for one new entry. Fully-expired entries go first;
// only when none remain is the coldest live entry (the one whose most recent
// attempt is oldest) evicted. An entry with attempts inside an active window
// is never evicted while an expired one remains.
func (c *attemptCache) evictLocked() {
	cutoff := c.now().Add(-c.window)

	var (
		coldestKey  string
		coldestLast time.Time
		found       bool
	)

	for key, stamps := range c.attempts {
		last := stamps[len(stamps)-1]
		if !last.After(cutoff) {
			// Fully expired: free with no information loss.
			delete(c.attempts, key)
			return
		}
		if !found || last.Before(coldestLast) {
			coldestKey = key
			coldestLast = last
			found = true
		}
	}

	if found {
		delete(c.attempts, coldestKey)
	}
}
