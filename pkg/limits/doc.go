// Package limits contains the admission-control limiters and the tier table
// that maps a caller's tier to its per-window request quotas.
//
// Subpackages:
//
//   - ratelimit: continuous token-bucket quota limiter over minute/hour/day
//     windows for metered traffic
//   - authguard: attempt-window limiter protecting login-type endpoints
//     against brute force and credential stuffing
package limits
