// Package handlers contains the HTTP handlers behind the admission chain:
// auth endpoints (login, signup, refresh) with the per-account lockout, and
// the metered data endpoints.
package handlers
