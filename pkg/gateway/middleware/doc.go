// Package middleware contains the HTTP middleware chain for the gateway:
// request IDs, structured request logging, panic recovery, API key
// authentication, quota enforcement and the auth endpoint guard.
//
// Ordering matters: authentication runs strictly before quota so that a
// request is metered against the right identity, and the guard runs before
// credential handling on the auth routes.
package middleware
