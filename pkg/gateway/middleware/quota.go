package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/auth"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/gateway/types"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits/ratelimit"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/telemetry/metrics"
)

// QuotaMiddleware enforces the per-window request quota. It runs after
// auth: an authenticated caller is metered per key at their tier's limits,
// an anonymous caller per client IP at the anonymous limits.
type QuotaMiddleware struct {
	quota   *ratelimit.QuotaLimiter
	tiers   *limits.TierTable
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewQuotaMiddleware creates the middleware. metrics may be nil.
func NewQuotaMiddleware(q *ratelimit.QuotaLimiter, tiers *limits.TierTable, m *metrics.Collector, logger *slog.Logger) *QuotaMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuotaMiddleware{
		quota:   q,
		tiers:   tiers,
		metrics: m,
		logger:  logger.With("component", "quota_middleware"),
	}
}

// Handle checks and commits the caller's quota. Every response carries the
// minute-window X-RateLimit-* headers; a denial adds Retry-After and
// X-RateLimit-Type naming the exhausted window.
func (m *QuotaMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identifier, tier, tierLimits := m.resolveCaller(r)

		decision := m.quota.Check(identifier, ratelimit.Limits{
			PerMinute: tierLimits.PerMinute,
			PerHour:   tierLimits.PerHour,
			PerDay:    tierLimits.PerDay,
		})

		SetQuotaHeaders(w, decision)

		if m.metrics != nil {
			m.metrics.RecordQuotaCheck(string(tier), decision.Allowed)
		}

		if !decision.Allowed {
			if m.metrics != nil {
				m.metrics.RecordQuotaDenial(string(decision.Window))
			}
			w.Header().Set(HeaderRateLimitType, string(decision.Window))
			SetRetryAfter(w, decision.RetryAfter)

			m.logger.Warn("quota exceeded",
				"identifier", identifier,
				"tier", tier,
				"window", decision.Window,
				"retry_after", decision.RetryAfter,
			)
			WriteError(w, types.NewRateLimitError(fmt.Sprintf(
				"Rate limit exceeded for the %s window. Try again later.",
				decision.Window,
			)))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// resolveCaller maps the request to a quota identifier and limits. Key IDs
// keep quota stable across IP changes; anonymous callers fall back to IP.
func (m *QuotaMiddleware) resolveCaller(r *http.Request) (string, limits.Tier, limits.TierLimits) {
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		return "api_key:" + identity.KeyID, identity.Tier, identity.Limits
	}
	return "ip:" + ClientIP(r), limits.TierAnonymous, m.tiers.Anonymous()
}
