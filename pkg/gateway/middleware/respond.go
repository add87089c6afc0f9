package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/gateway/types"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits/ratelimit"
)

// Rate-limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRateLimitType      = "X-RateLimit-Type"
	HeaderRetryAfter         = "Retry-After"
)

// WriteError writes the error envelope with the status implied by its type.
func WriteError(w http.ResponseWriter, resp *types.ErrorResponse) {
	WriteJSON(w, resp.Error.HTTPStatusCode(), resp)
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// SetQuotaHeaders sets the X-RateLimit-* headers from a quota decision.
// Allowed and denied responses both carry them.
func SetQuotaHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	h := w.Header()
	h.Set(HeaderRateLimitLimit, strconv.FormatInt(d.Limit, 10))
	h.Set(HeaderRateLimitRemaining, strconv.FormatInt(d.Remaining, 10))
	h.Set(HeaderRateLimitReset, strconv.FormatInt(d.Reset.Unix(), 10))
}

// SetRetryAfter sets Retry-After in whole seconds, rounded up so clients
// never retry early.
func SetRetryAfter(w http.ResponseWriter, d time.Duration) {
	secs := int64((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set(HeaderRetryAfter, strconv.FormatInt(secs, 10))
}

// ClientIP returns the request's client IP, without the port. Falls back to
// the raw RemoteAddr when it does not parse as host:port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
