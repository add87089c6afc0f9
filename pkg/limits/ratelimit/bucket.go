package ratelimit

import "time"

// bucket is a continuous token bucket for a single (identifier, window) pair.
//
// Tokens are fractional: they refill at refillRate tokens per second up to
// capacity, and are consumed one whole token per admitted request. The
// invariant tokens in [0, capacity] holds after every operation.
//
// bucket carries no lock of its own; the owning shard serializes access so
// that refill, check, and consume for one identifier form a single critical
// section across all three windows.
type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastUpdate time.Time
}

// newBucket creates a full bucket for a window limit.
// A bucket is lazily created on first access, so it starts at capacity.
func newBucket(limit int, window Window, now time.Time) *bucket {
	capacity := float64(limit)
	return &bucket{
		tokens:     capacity,
		capacity:   capacity,
		refillRate: capacity / window.Seconds(),
		lastUpdate: now,
	}
}

// refill advances the bucket to now, crediting elapsed-time tokens up to
// capacity. Refilling is idempotent with respect to the decision: it may be
// committed even when a later window denies the request.
func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastUpdate).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastUpdate = now
}

// hasToken reports whether one whole token is available.
func (b *bucket) hasToken() bool {
	return b.tokens >= 1
}

// consume removes exactly one token. Caller must have confirmed hasToken
// for every window first; consuming is the commit phase.
func (b *bucket) consume() {
	b.tokens--
	if b.tokens < 0 {
		b.tokens = 0
	}
}

// nextToken returns when one whole token will be available.
func (b *bucket) nextToken(now time.Time) time.Time {
	if b.tokens >= 1 {
		return now
	}
	wait := (1 - b.tokens) / b.refillRate
	return b.lastUpdate.Add(time.Duration(wait * float64(time.Second)))
}

// fullAt returns when the bucket will be back at capacity.
func (b *bucket) fullAt(now time.Time) time.Time {
	if b.tokens >= b.capacity {
		return now
	}
	wait := (b.capacity - b.tokens) / b.refillRate
	return b.lastUpdate.Add(time.Duration(wait * float64(time.Second)))
}
