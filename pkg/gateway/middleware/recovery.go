package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/gateway/types"
)

// Recovery recovers from handler panics and returns a 500 in the standard
// error envelope. The panic and stack trace are logged, never exposed.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.ErrorContext(r.Context(), "panic in handler",
					"error", err,
					"request_id", GetRequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)

				WriteError(w, types.NewAPIError(
					"An internal error occurred. Please try again later.",
					types.CodeInternalError,
				))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
