package authguard

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Limit type names reported in the X-RateLimit-Type header.
const (
	// LimitTypeLogin is the per-IP login attempt limit.
	LimitTypeLogin = "login"

	// LimitTypeAuth is the per-IP limit for signup/refresh and other auth
	// endpoints.
	LimitTypeAuth = "auth"

	// LimitTypeFailedLogin is the per-account failed-login lockout.
	LimitTypeFailedLogin = "failed_login"
)

// Config holds the guard's thresholds and cache bounds.
type Config struct {
	// LoginLimit is the maximum login attempts per IP per window.
	LoginLimit int

	// AuthLimit is the maximum general auth attempts per IP per window.
	AuthLimit int

	// IPWindow is the attempt window for both per-IP limits.
	IPWindow time.Duration

	// FailedLoginLimit is the maximum failed logins per account per window.
	FailedLoginLimit int

	// FailedLoginWindow is the failed-login attempt window.
	FailedLoginWindow time.Duration

	// MaxIPEntries bounds each per-IP cache.
	MaxIPEntries int

	// MaxEmailEntries bounds the per-account cache.
	MaxEmailEntries int
}

// DefaultConfig returns the guard defaults: 5 logins and 10 general auth
// attempts per IP per minute, 3 failed logins per account per 5 minutes.
func DefaultConfig() Config {
	return Config{
		LoginLimit:        5,
		AuthLimit:         10,
		IPWindow:          time.Minute,
		FailedLoginLimit:  3,
		FailedLoginWindow: 5 * time.Minute,
		MaxIPEntries:      10000,
		MaxEmailEntries:   5000,
	}
}

// Result is the outcome of a guard check.
type Result struct {
	// Allowed reports whether the attempt may proceed.
	Allowed bool

	// LimitType names the limit that denied ("login", "auth",
	// "failed_login"). Empty on allow.
	LimitType string

	// Limit is the configured threshold of the denying limit.
	Limit int

	// RetryAfter is the full window length of the denying limit. It does
	// not shrink as further attempts are recorded.
	RetryAfter time.Duration
}

var allowed = Result{Allowed: true}

// Guard slows down credential stuffing and brute force against login-type
// endpoints, independently of the quota limiter (which only covers
// authenticated, metered traffic). It tracks attempts per source IP and per
// target account; an attacker is blocked by whichever triggers first.
//
// Target accounts are keyed by a one-way hash of the email so no PII reaches
// logs or memory dumps.
type Guard struct {
	cfg Config

	login        *attemptCache // per-IP, login endpoint
	auth         *attemptCache // per-IP, signup/refresh/etc.
	failedLogins *attemptCache // per hashed email
}

// New creates a guard with the given configuration. Zero-valued fields take
// the defaults.
func New(cfg Config) *Guard {
	def := DefaultConfig()
	if cfg.LoginLimit <= 0 {
		cfg.LoginLimit = def.LoginLimit
	}
	if cfg.AuthLimit <= 0 {
		cfg.AuthLimit = def.AuthLimit
	}
	if cfg.IPWindow <= 0 {
		cfg.IPWindow = def.IPWindow
	}
	if cfg.FailedLoginLimit <= 0 {
		cfg.FailedLoginLimit = def.FailedLoginLimit
	}
	if cfg.FailedLoginWindow <= 0 {
		cfg.FailedLoginWindow = def.FailedLoginWindow
	}
	if cfg.MaxIPEntries <= 0 {
		cfg.MaxIPEntries = def.MaxIPEntries
	}
	if cfg.MaxEmailEntries <= 0 {
		cfg.MaxEmailEntries = def.MaxEmailEntries
	}

	return &Guard{
		cfg:          cfg,
		login:        newAttemptCache(cfg.IPWindow, cfg.MaxIPEntries),
		auth:         newAttemptCache(cfg.IPWindow, cfg.MaxIPEntries),
		failedLogins: newAttemptCache(cfg.FailedLoginWindow, cfg.MaxEmailEntries),
	}
}

// CheckLoginRate counts this login attempt against ip's window. The attempt
// is recorded only when admitted.
func (g *Guard) CheckLoginRate(ip string) Result {
	if g.login.tryAcquire(ip, g.cfg.LoginLimit) {
		return allowed
	}
	return Result{
		LimitType:  LimitTypeLogin,
		Limit:      g.cfg.LoginLimit,
		RetryAfter: g.cfg.IPWindow,
	}
}

// CheckAuthRate is the same mechanism as CheckLoginRate with an independent
// counter and a higher threshold, for signup/refresh and similar endpoints.
func (g *Guard) CheckAuthRate(ip string) Result {
	if g.auth.tryAcquire(ip, g.cfg.AuthLimit) {
		return allowed
	}
	return Result{
		LimitType:  LimitTypeAuth,
		Limit:      g.cfg.AuthLimit,
		RetryAfter: g.cfg.IPWindow,
	}
}

// RecordFailedLogin appends a failed attempt to the account's window. It does
// not itself deny; CheckFailedLogins does.
func (g *Guard) RecordFailedLogin(email string) {
	g.failedLogins.record(HashEmail(email))
}

// CheckFailedLogins denies once the account has accumulated the configured
// number of failed logins inside the window. It is checked independently of,
// and in addition to, the per-IP limits.
func (g *Guard) CheckFailedLogins(email string) Result {
	if g.failedLogins.count(HashEmail(email)) < g.cfg.FailedLoginLimit {
		return allowed
	}
	return Result{
		LimitType:  LimitTypeFailedLogin,
		Limit:      g.cfg.FailedLoginLimit,
		RetryAfter: g.cfg.FailedLoginWindow,
	}
}

// ResetIP clears the named per-IP window after a successful authentication.
func (g *Guard) ResetIP(ip string, limitType string) {
	switch limitType {
	case LimitTypeLogin:
		g.login.reset(ip)
	case LimitTypeAuth:
		g.auth.reset(ip)
	}
}

// ResetFailedLogins clears the account's failed-login window after a
// successful authentication.
func (g *Guard) ResetFailedLogins(email string) {
	g.failedLogins.reset(HashEmail(email))
}

// Sizes reports the tracked entry counts (login IPs, auth IPs, accounts),
// used for metrics.
func (g *Guard) Sizes() (login, auth, failed int) {
	return g.login.size(), g.auth.size(), g.failedLogins.size()
}

// Prune drops entries whose windows have fully elapsed from all three caches
// and returns the total removed.
func (g *Guard) Prune() int {
	return g.login.sweep() + g.auth.sweep() + g.failedLogins.sweep()
}

// HashEmail returns the hex SHA-256 of a normalized email address. Emails are
// hashed before any storage or logging.
func HashEmail(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
