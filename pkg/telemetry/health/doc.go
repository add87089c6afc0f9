// Package health provides the liveness/readiness probe endpoints and the
// sliding-window guard that protects them from abuse, since they are served
// without authentication.
package health
