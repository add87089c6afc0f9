package middleware

import (
	"log/slog"
	"net/http"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/auth"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/gateway/types"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/telemetry/metrics"
)

// AuthMiddleware validates the API key header and places the caller's
// Identity on the request context.
type AuthMiddleware struct {
	authenticator *auth.Authenticator
	headerName    string
	metrics       *metrics.Collector
	logger        *slog.Logger
}

// NewAuthMiddleware creates the middleware. metrics may be nil.
func NewAuthMiddleware(a *auth.Authenticator, headerName string, m *metrics.Collector, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		authenticator: a,
		headerName:    headerName,
		metrics:       m,
		logger:        logger.With("component", "auth_middleware"),
	}
}

// Handle requires a valid API key. Credential failures get a 401 with the
// specific error code; a store failure gets a 500 rather than letting an
// unverified caller through.
func (m *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := r.Header.Get(m.headerName)

		identity, err := m.authenticator.Validate(r.Context(), presented)
		if err != nil {
			if authErr, ok := auth.AsAuthError(err); ok {
				m.recordAuth(string(authErr.Code))
				m.logger.Warn("authentication failed",
					"code", authErr.Code,
					"key", auth.MaskKey(presented),
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				WriteError(w, types.NewAuthenticationError(authErr.Message, string(authErr.Code)))
				return
			}

			m.recordAuth("store_error")
			m.logger.Error("key validation failed",
				"error", err,
				"path", r.URL.Path,
			)
			WriteError(w, types.NewAPIError(
				"Unable to validate API key. Please try again later.",
				types.CodeValidationError,
			))
			return
		}

		m.recordAuth("ok")
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	})
}

// HandleOptional admits anonymous callers: a valid key attaches an
// Identity, anything else passes through without one.
func (m *AuthMiddleware) HandleOptional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := r.Header.Get(m.headerName)

		if identity := m.authenticator.ValidateLenient(r.Context(), presented); identity != nil {
			r = r.WithContext(auth.WithIdentity(r.Context(), identity))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) recordAuth(result string) {
	if m.metrics != nil {
		m.metrics.RecordAuthCheck(result)
	}
}
