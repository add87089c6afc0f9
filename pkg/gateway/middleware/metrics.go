package middleware

import (
	"net/http"
	"strconv"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/telemetry/metrics"
)

// MetricsMiddleware counts completed requests by method, route and status
// class. The route label is restricted to the registered route set so
// unmatched paths cannot inflate label cardinality.
type MetricsMiddleware struct {
	collector *metrics.Collector
	routes    map[string]struct{}
}

// NewMetricsMiddleware creates the request counter middleware. routes is the
// closed set of paths reported as-is; anything else is labelled "other".
func NewMetricsMiddleware(collector *metrics.Collector, routes []string) *MetricsMiddleware {
	set := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		set[r] = struct{}{}
	}
	return &MetricsMiddleware{collector: collector, routes: set}
}

// Handle records each completed request.
func (m *MetricsMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		route := r.URL.Path
		if _, known := m.routes[route]; !known {
			route = "other"
		}
		m.collector.RecordRequest(r.Method, route, statusClass(rw.statusCode))
	})
}

// statusClass buckets a status code into "2xx", "4xx" and so on.
func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
