package health

import (
	"sync"
	"time"
)

// defaultMaxProbeEntries bounds how many distinct client IPs the guard
// tracks at once.
const defaultMaxProbeEntries = 10000

// ProbeGuard is a minimal sliding-window limiter for unauthenticated probe
// endpoints. It keeps a list of recent request timestamps per IP, discards
// entries older than the window on every call, and denies once the remaining
// count reaches the configured maximum. The IP map is bounded: when full,
// fully-expired entries are evicted first, then the coldest live one.
//
// A single mutex guards the whole structure; probe endpoints see low call
// volume and do not justify sharding.
type ProbeGuard struct {
	mu          sync.Mutex
	maxRequests int
	maxEntries  int
	window      time.Duration
	requests    map[string][]time.Time

	now func() time.Time
}

// NewProbeGuard creates a guard allowing maxRequests per window per IP.
// Defaults: 10 requests per 60 seconds.
func NewProbeGuard(maxRequests int, window time.Duration) *ProbeGuard {
	if maxRequests <= 0 {
		maxRequests = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &ProbeGuard{
		maxRequests: maxRequests,
		maxEntries:  defaultMaxProbeEntries,
		window:      window,
		requests:    make(map[string][]time.Time),
		now:         time.Now,
	}
}

// IsAllowed reports whether ip may issue another probe, recording the request
// when admitted.
func (g *ProbeGuard) IsAllowed(ip string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	live := g.pruneLocked(ip, now)
	if len(live) >= g.maxRequests {
		g.requests[ip] = live
		return false
	}

	if _, exists := g.requests[ip]; !exists && len(g.requests) >= g.maxEntries {
		g.evictLocked(now)
	}
	g.requests[ip] = append(live, now)
	return true
}

// Remaining returns how many probes ip has left in the current window.
func (g *ProbeGuard) Remaining(ip string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	live := g.pruneLocked(ip, g.now())
	if len(live) == 0 {
		delete(g.requests, ip)
	} else {
		g.requests[ip] = live
	}

	left := g.maxRequests - len(live)
	if left < 0 {
		return 0
	}
	return left
}

// Window returns the configured window length.
func (g *ProbeGuard) Window() time.Duration {
	return g.window
}

// Sweep removes every IP whose window has fully elapsed and returns how many
// were dropped. Lazy per-IP pruning handles the hot path; Sweep reclaims IPs
// that never probe again.
func (g *ProbeGuard) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := g.now().Add(-g.window)
	removed := 0
	for ip, stamps := range g.requests {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
			delete(g.requests, ip)
			removed++
		}
	}
	return removed
}

// Size returns the number of tracked IPs.
func (g *ProbeGuard) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func (g *ProbeGuard) pruneLocked(ip string, now time.Time) []time.Time {
	cutoff := now.Add(-g.window)
	stamps := g.requests[ip]

	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}

// evictLocked makes room for one new IP. Fully-expired entries go first; only
// when none remain is the entry whose most recent probe is oldest evicted.
// Caller holds the lock.
func (g *ProbeGuard) evictLocked(now time.Time) {
	cutoff := now.Add(-g.window)

	var (
		coldestIP   string
		coldestLast time.Time
		found       bool
	)

	for ip, stamps := range g.requests {
		if len(stamps) == 0 {
			delete(g.requests, ip)
			return
		}
		last := stamps[len(stamps)-1]
		if !last.After(cutoff) {
			delete(g.requests, ip)
			return
		}
		if !found || last.Before(coldestLast) {
			coldestIP = ip
			coldestLast = last
			found = true
		}
	}

	if found {
		delete(g.requests, coldestIP)
	}
}
