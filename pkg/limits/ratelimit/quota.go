package ratelimit

import (
	"hash/fnv"
	"math"
	"sync"
	"time"
)

// shardCount is the number of independent lock domains. Identifiers are
// hashed onto shards so unrelated callers do not contend on one mutex.
const shardCount = 64

// QuotaLimiter decides admit/deny for metered traffic across three nested
// time windows (minute, hour, day), one continuous token bucket per
// (identifier, window).
//
// # Evaluate-then-commit
//
// A request is admitted only if every window has at least one whole token.
// The check refills all three buckets first (read-mostly, and refilling is
// harmless on denial), then inspects all three, and only decrements when all
// pass. Decrementing before confirming every window would under-count quota
// on denial.
//
// # Concurrency
//
// All bucket reads, refills, and decrements for one identifier happen under
// that identifier's shard lock as one atomic unit, so two concurrent requests
// can never both observe the last token and jointly overdraw it. Decisions
// for a single identifier are totally ordered by arrival at the shard lock.
type QuotaLimiter struct {
	shards [shardCount]*quotaShard

	// now is the clock source, injectable for tests.
	now func() time.Time
}

type quotaShard struct {
	mu      sync.Mutex
	entries map[string]*quotaEntry
}

// quotaEntry holds the three window buckets for one identifier.
type quotaEntry struct {
	limits   Limits
	buckets  [3]*bucket
	lastSeen time.Time
}

// NewQuotaLimiter creates an empty quota limiter. Buckets are created lazily,
// full, on an identifier's first check.
func NewQuotaLimiter() *QuotaLimiter {
	q := &QuotaLimiter{now: time.Now}
	for i := range q.shards {
		q.shards[i] = &quotaShard{entries: make(map[string]*quotaEntry)}
	}
	return q
}

// Check decides whether one request for identifier may proceed under limits.
//
// Identifier selection is the caller's concern: authenticated requests use
// "api_key:<key_id>" with tier-derived limits, anonymous requests use
// "ip:<client_ip>" with the anonymous limit set.
func (q *QuotaLimiter) Check(identifier string, limits Limits) Decision {
	shard := q.shards[shardIndex(identifier)]
	now := q.now()

	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry := shard.entries[identifier]
	if entry == nil || entry.limits != limits {
		// Lazily created full, or rebuilt when the caller's limits changed
		// (tier upgrade or config reload).
		entry = &quotaEntry{limits: limits}
		for i, w := range windows {
			entry.buckets[i] = newBucket(limits.forWindow(w), w, now)
		}
		shard.entries[identifier] = entry
	}
	entry.lastSeen = now

	// Refill every window up front. The refill timestamp advances even for
	// windows evaluated before a denial; only the decrement is withheld.
	for _, b := range entry.buckets {
		b.refill(now)
	}

	// Evaluate all windows before touching any token count.
	for i, w := range windows {
		b := entry.buckets[i]
		if !b.hasToken() {
			reset := b.nextToken(now)
			return Decision{
				Allowed:    false,
				Window:     w,
				Limit:      int64(b.capacity),
				Remaining:  remaining(b),
				Reset:      reset,
				RetryAfter: reset.Sub(now),
			}
		}
	}

	// Commit: all windows pass, decrement each by exactly one.
	for _, b := range entry.buckets {
		b.consume()
	}

	minute := entry.buckets[0]
	return Decision{
		Allowed:   true,
		Window:    WindowMinute,
		Limit:     int64(minute.capacity),
		Remaining: remaining(minute),
		Reset:     minute.fullAt(now),
	}
}

// Prune drops identifier state idle for longer than idleFor and returns the
// number of entries removed. An entry idle past the largest window is fully
// refilled anyway, so recreating it on next access is semantically identical.
func (q *QuotaLimiter) Prune(idleFor time.Duration) int {
	cutoff := q.now().Add(-idleFor)
	removed := 0

	for _, shard := range q.shards {
		shard.mu.Lock()
		for id, entry := range shard.entries {
			if entry.lastSeen.Before(cutoff) {
				delete(shard.entries, id)
				removed++
			}
		}
		shard.mu.Unlock()
	}

	return removed
}

// Size returns the number of tracked identifiers.
func (q *QuotaLimiter) Size() int {
	total := 0
	for _, shard := range q.shards {
		shard.mu.Lock()
		total += len(shard.entries)
		shard.mu.Unlock()
	}
	return total
}

// remaining reports whole tokens, clamped at zero.
func remaining(b *bucket) int64 {
	if b.tokens < 0 {
		return 0
	}
	return int64(math.Floor(b.tokens))
}

func shardIndex(identifier string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identifier))
	return int(h.Sum32() % shardCount)
}
