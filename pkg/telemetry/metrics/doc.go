// Package metrics exposes Prometheus counters for the admission layer:
// auth outcomes, quota decisions, guard denials and request totals.
package metrics
