package health

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/gateway/types"
)

// Endpoints serves the /health and /ready probe handlers behind the
// ProbeGuard.
type Endpoints struct {
	guard *ProbeGuard

	// readiness is pinged by the readiness probe; typically the key store.
	readiness func(ctx context.Context) error

	// onDeny, when set, is called once per rejected probe.
	onDeny func()
}

// NewEndpoints creates probe endpoints. readiness may be nil, in which case
// /ready only reports process liveness.
func NewEndpoints(guard *ProbeGuard, readiness func(ctx context.Context) error) *Endpoints {
	return &Endpoints{guard: guard, readiness: readiness}
}

// SetDenyHook registers a callback invoked whenever the guard rejects a
// probe. Must be called before the handlers are serving.
func (e *Endpoints) SetDenyHook(fn func()) {
	e.onDeny = fn
}

// probeStatus is the body returned by the probe endpoints.
type probeStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
}

// LivenessHandler serves GET /health: a simple process-alive check, rate
// limited per source IP since it is unauthenticated.
func (e *Endpoints) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !e.admit(w, r) {
			return
		}

		writeJSON(w, http.StatusOK, probeStatus{
			Status:    "ok",
			Timestamp: time.Now().UTC(),
		})
	}
}

// ReadinessHandler serves GET /ready: 200 when the service can serve
// traffic, 503 when a dependency (the key store) is unreachable.
func (e *Endpoints) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !e.admit(w, r) {
			return
		}

		if e.readiness != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := e.readiness(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, probeStatus{
					Status:    "unavailable",
					Timestamp: time.Now().UTC(),
					Message:   err.Error(),
				})
				return
			}
		}

		writeJSON(w, http.StatusOK, probeStatus{
			Status:    "ready",
			Timestamp: time.Now().UTC(),
		})
	}
}

// admit applies method and probe-rate checks, writing the response itself
// when the request is rejected.
func (e *Endpoints) admit(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}

	ip := clientIP(r)
	if !e.guard.IsAllowed(ip) {
		if e.onDeny != nil {
			e.onDeny()
		}
		retry := int(e.guard.Window().Seconds())
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		writeJSONError(w, http.StatusTooManyRequests,
			types.NewRateLimitError("Too many health check requests"))
		return false
	}

	return true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, body *types.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
