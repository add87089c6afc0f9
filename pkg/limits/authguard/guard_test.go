package authguard

import (
	"strings"
	"sync"
	"testing"
	"time"
)

// setClock points all of a guard's caches at one controllable time source.
func setClock(g *Guard, now func() time.Time) {
	g.login.now = now
	g.auth.now = now
	g.failedLogins.now = now
}

// ============================================================================
// Per-IP Limits
// ============================================================================

func TestGuard_LoginRateLimit(t *testing.T) {
	g := New(DefaultConfig())

	// 5 attempts from one IP are counted and admitted.
	for i := 0; i < 5; i++ {
		if r := g.CheckLoginRate("1.2.3.4"); !r.Allowed {
			t.Fatalf("attempt %d denied, expected allow", i+1)
		}
	}

	// The 6th inside the window is denied.
	r := g.CheckLoginRate("1.2.3.4")
	if r.Allowed {
		t.Fatal("6th attempt allowed, expected deny")
	}
	if r.LimitType != LimitTypeLogin {
		t.Errorf("limit type = %q, want %q", r.LimitType, LimitTypeLogin)
	}
	if r.RetryAfter != time.Minute {
		t.Errorf("RetryAfter = %v, want 60s", r.RetryAfter)
	}

	// A different IP is unaffected.
	if r := g.CheckLoginRate("5.6.7.8"); !r.Allowed {
		t.Error("attempt from different IP denied")
	}
}

func TestGuard_AuthRateLimitIndependentOfLogin(t *testing.T) {
	g := New(DefaultConfig())

	// Drain the login limit.
	for i := 0; i < 5; i++ {
		g.CheckLoginRate("1.2.3.4")
	}
	if r := g.CheckLoginRate("1.2.3.4"); r.Allowed {
		t.Fatal("login limit not enforced")
	}

	// General auth counter is independent: threshold 10.
	for i := 0; i < 10; i++ {
		if r := g.CheckAuthRate("1.2.3.4"); !r.Allowed {
			t.Fatalf("auth attempt %d denied, expected allow", i+1)
		}
	}
	r := g.CheckAuthRate("1.2.3.4")
	if r.Allowed {
		t.Fatal("11th auth attempt allowed, expected deny")
	}
	if r.LimitType != LimitTypeAuth {
		t.Errorf("limit type = %q, want %q", r.LimitType, LimitTypeAuth)
	}
}

func TestGuard_WindowExpiry(t *testing.T) {
	g := New(DefaultConfig())
	clock := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	setClock(g, func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	})

	for i := 0; i < 5; i++ {
		g.CheckLoginRate("1.2.3.4")
	}
	if r := g.CheckLoginRate("1.2.3.4"); r.Allowed {
		t.Fatal("expected deny inside window")
	}

	mu.Lock()
	clock = clock.Add(61 * time.Second)
	mu.Unlock()

	if r := g.CheckLoginRate("1.2.3.4"); !r.Allowed {
		t.Error("expected allow after window elapsed")
	}
}

func TestGuard_ResetIPAfterSuccessfulLogin(t *testing.T) {
	g := New(DefaultConfig())

	for i := 0; i < 5; i++ {
		g.CheckLoginRate("1.2.3.4")
	}
	if r := g.CheckLoginRate("1.2.3.4"); r.Allowed {
		t.Fatal("expected deny before reset")
	}

	g.ResetIP("1.2.3.4", LimitTypeLogin)

	// The immediately following attempt succeeds.
	if r := g.CheckLoginRate("1.2.3.4"); !r.Allowed {
		t.Error("expected allow immediately after reset")
	}
}

// ============================================================================
// Failed-Login Lockout
// ============================================================================

func TestGuard_FailedLoginLockout(t *testing.T) {
	g := New(DefaultConfig())

	// Below the threshold the account is not locked.
	g.RecordFailedLogin("a@b.com")
	g.RecordFailedLogin("a@b.com")
	if r := g.CheckFailedLogins("a@b.com"); !r.Allowed {
		t.Fatal("locked below threshold")
	}

	g.RecordFailedLogin("a@b.com")
	r := g.CheckFailedLogins("a@b.com")
	if r.Allowed {
		t.Fatal("expected lockout after 3 failures")
	}
	if r.LimitType != LimitTypeFailedLogin {
		t.Errorf("limit type = %q, want %q", r.LimitType, LimitTypeFailedLogin)
	}
	if r.RetryAfter != 5*time.Minute {
		t.Errorf("RetryAfter = %v, want 300s", r.RetryAfter)
	}

	// More failures beyond the threshold do not reduce RetryAfter.
	g.RecordFailedLogin("a@b.com")
	if r := g.CheckFailedLogins("a@b.com"); r.RetryAfter != 5*time.Minute {
		t.Errorf("RetryAfter after extra failure = %v, want 300s", r.RetryAfter)
	}

	// A different account is unaffected.
	if r := g.CheckFailedLogins("c@d.com"); !r.Allowed {
		t.Error("unrelated account locked")
	}
}

func TestGuard_ResetFailedLogins(t *testing.T) {
	g := New(DefaultConfig())

	for i := 0; i < 3; i++ {
		g.RecordFailedLogin("a@b.com")
	}
	if r := g.CheckFailedLogins("a@b.com"); r.Allowed {
		t.Fatal("expected lockout")
	}

	g.ResetFailedLogins("a@b.com")
	if r := g.CheckFailedLogins("a@b.com"); !r.Allowed {
		t.Error("expected unlock after reset")
	}
}

func TestHashEmail(t *testing.T) {
	h1 := HashEmail("a@b.com")
	h2 := HashEmail("a@b.com")
	if h1 != h2 {
		t.Error("hashing the same email twice gave different hashes")
	}
	if HashEmail("a@b.com") == HashEmail("x@y.com") {
		t.Error("different emails hashed to the same value")
	}
	// Normalization: case and surrounding whitespace are not significant.
	if HashEmail(" A@B.com ") != h1 {
		t.Error("expected normalized email to hash identically")
	}
	// No PII in the output.
	if strings.Contains(h1, "@") || len(h1) != 64 {
		t.Errorf("unexpected hash shape: %q", h1)
	}
}

// ============================================================================
// Cache Bounds and Eviction
// ============================================================================

func TestAttemptCache_EvictsExpiredBeforeActive(t *testing.T) {
	c := newAttemptCache(time.Minute, 2)
	clock := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.record("stale")
	clock = clock.Add(2 * time.Minute) // "stale" fully expires

	c.record("active")
	c.record("new") // at capacity: must evict "stale", not "active"

	if c.count("active") != 1 {
		t.Error("active entry was evicted while an expired entry remained")
	}
	if c.count("new") != 1 {
		t.Error("new entry missing after insert")
	}
}

func TestAttemptCache_EvictsColdestWhenNoneExpired(t *testing.T) {
	c := newAttemptCache(time.Minute, 2)
	clock := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	c.record("cold")
	clock = clock.Add(10 * time.Second)
	c.record("warm")
	clock = clock.Add(10 * time.Second)
	c.record("new")

	if c.count("cold") != 0 {
		t.Error("expected coldest entry to be evicted")
	}
	if c.count("warm") != 1 || c.count("new") != 1 {
		t.Error("warmer entries should survive eviction")
	}
	if c.size() > 2 {
		t.Errorf("cache size %d exceeds bound 2", c.size())
	}
}

func TestGuard_PruneSweepsExpiredWindows(t *testing.T) {
	g := New(Config{})
	clock := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	setClock(g, func() time.Time { return clock })

	g.CheckLoginRate("1.2.3.4")
	g.CheckAuthRate("5.6.7.8")
	g.RecordFailedLogin("user@example.com")

	if got := g.Prune(); got != 0 {
		t.Errorf("Prune removed %d live entries, want 0", got)
	}

	clock = clock.Add(10 * time.Minute) // past both IP and lockout windows

	if got := g.Prune(); got != 3 {
		t.Errorf("Prune removed %d entries, want 3", got)
	}
	login, auth, failed := g.Sizes()
	if login+auth+failed != 0 {
		t.Errorf("caches not empty after prune: %d/%d/%d", login, auth, failed)
	}
}

func TestAttemptCache_ConcurrentTryAcquire(t *testing.T) {
	c := newAttemptCache(time.Minute, 100)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.tryAcquire("1.2.3.4", 5) {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != 5 {
		t.Errorf("granted %d acquisitions, want exactly 5", granted)
	}
}
