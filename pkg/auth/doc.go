// Package auth validates API keys and resolves caller identity.
//
// Keys are namespaced strings (dk_live_..., dk_test_...) stored only as
// SHA-256 hashes. Validation is a pure lookup plus lifecycle checks; the
// only write on the hot path is fire-and-forget usage bookkeeping.
package auth
