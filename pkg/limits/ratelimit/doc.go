// Package ratelimit implements the quota rate limiter for metered traffic.
//
// Each identifier (an authenticated key ID or a client IP) owns three
// continuous token buckets, one per window (minute, hour, day). A request is
// admitted only when every window has at least one whole token; the buckets
// are then all decremented by exactly one inside a single critical section.
//
// Example:
//
//	q := ratelimit.NewQuotaLimiter()
//	d := q.Check("api_key:123", ratelimit.Limits{PerMinute: 60, PerHour: 1000, PerDay: 10000})
//	if !d.Allowed {
//	    // deny with d.Window, d.RetryAfter
//	}
package ratelimit
