package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the Prometheus metrics for the admission layer.
//
// Label values are kept to small closed sets (tiers, error codes, window
// names) so cardinality stays bounded no matter how many keys or client
// IPs pass through.
type Collector struct {
	registry *prometheus.Registry

	authChecks   *prometheus.CounterVec
	quotaChecks  *prometheus.CounterVec
	quotaDenials *prometheus.CounterVec
	guardDenials *prometheus.CounterVec
	probeDenials prometheus.Counter
	requests     *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry. Pass nil to
// allocate a fresh registry, which keeps tests isolated from each other.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,

		authChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divapi_auth_checks_total",
				Help: "API key validations by outcome",
			},
			[]string{"result"},
		),

		quotaChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divapi_quota_checks_total",
				Help: "Quota evaluations by tier and outcome",
			},
			[]string{"tier", "result"},
		),

		quotaDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divapi_quota_denials_total",
				Help: "Quota denials by exhausted window",
			},
			[]string{"window"},
		),

		guardDenials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divapi_auth_guard_denials_total",
				Help: "Auth endpoint guard denials by limit type",
			},
			[]string{"limit_type"},
		),

		probeDenials: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "divapi_health_probe_denials_total",
				Help: "Health probe requests rejected by the probe guard",
			},
		),

		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divapi_http_requests_total",
				Help: "HTTP requests by method, route and status class",
			},
			[]string{"method", "route", "status"},
		),
	}
}

// TrackSizes exposes the live entry counts of the quota limiter and the
// guard attempt caches as gauges read at scrape time. Call at most once per
// registry.
func (c *Collector) TrackSizes(quotaSize func() int, guardSizes func() (login, auth, failed int)) {
	factory := promauto.With(c.registry)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "divapi_quota_entries",
		Help: "Identifiers currently tracked by the quota limiter",
	}, func() float64 {
		return float64(quotaSize())
	})

	for _, cache := range []struct {
		name string
		pick func(login, auth, failed int) int
	}{
		{"login", func(l, _, _ int) int { return l }},
		{"auth", func(_, a, _ int) int { return a }},
		{"failed_login", func(_, _, f int) int { return f }},
	} {
		pick := cache.pick
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "divapi_guard_entries",
			Help:        "Entries currently held in the auth guard caches",
			ConstLabels: prometheus.Labels{"cache": cache.name},
		}, func() float64 {
			return float64(pick(guardSizes()))
		})
	}
}

// RecordAuthCheck records an API key validation outcome. The result is
// "ok", an auth error code, or "store_error".
func (c *Collector) RecordAuthCheck(result string) {
	c.authChecks.WithLabelValues(result).Inc()
}

// RecordQuotaCheck records a quota evaluation.
func (c *Collector) RecordQuotaCheck(tier string, allowed bool) {
	result := "allowed"
	if !allowed {
		result = "denied"
	}
	c.quotaChecks.WithLabelValues(tier, result).Inc()
}

// RecordQuotaDenial records which window exhausted on a quota denial.
func (c *Collector) RecordQuotaDenial(window string) {
	c.quotaDenials.WithLabelValues(window).Inc()
}

// RecordGuardDenial records an auth endpoint guard denial.
func (c *Collector) RecordGuardDenial(limitType string) {
	c.guardDenials.WithLabelValues(limitType).Inc()
}

// RecordProbeDenial records a rejected health probe.
func (c *Collector) RecordProbeDenial() {
	c.probeDenials.Inc()
}

// RecordRequest records a completed HTTP request.
func (c *Collector) RecordRequest(method, route, status string) {
	c.requests.WithLabelValues(method, route, status).Inc()
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
