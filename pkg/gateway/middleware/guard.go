package middleware

import (
	"log/slog"
	"net/http"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/gateway/types"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits/authguard"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/telemetry/metrics"
)

// GuardMiddleware throttles the auth endpoints per client IP before any
// credentials are inspected.
type GuardMiddleware struct {
	guard   *authguard.Guard
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewGuardMiddleware creates the middleware. metrics may be nil.
func NewGuardMiddleware(g *authguard.Guard, m *metrics.Collector, logger *slog.Logger) *GuardMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuardMiddleware{
		guard:   g,
		metrics: m,
		logger:  logger.With("component", "auth_guard_middleware"),
	}
}

// HandleLogin applies the stricter per-IP login window.
func (m *GuardMiddleware) HandleLogin(next http.Handler) http.Handler {
	return m.handle(next, func(ip string) authguard.Result {
		return m.guard.CheckLoginRate(ip)
	})
}

// HandleAuth applies the per-IP window for signup, refresh and similar
// endpoints.
func (m *GuardMiddleware) HandleAuth(next http.Handler) http.Handler {
	return m.handle(next, func(ip string) authguard.Result {
		return m.guard.CheckAuthRate(ip)
	})
}

func (m *GuardMiddleware) handle(next http.Handler, check func(ip string) authguard.Result) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)

		result := check(ip)
		if !result.Allowed {
			if m.metrics != nil {
				m.metrics.RecordGuardDenial(result.LimitType)
			}
			w.Header().Set(HeaderRateLimitType, result.LimitType)
			SetRetryAfter(w, result.RetryAfter)

			m.logger.Warn("auth endpoint throttled",
				"limit_type", result.LimitType,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			WriteError(w, types.NewRateLimitError(
				"Too many attempts. Try again later.",
			))
			return
		}

		next.ServeHTTP(w, r)
	})
}
