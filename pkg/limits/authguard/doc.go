// Package authguard implements the brute-force guard for authentication
// endpoints: sliding attempt windows per source IP (login and general auth)
// and per target account (failed logins, keyed by hashed email), held in
// bounded, time-expiring caches.
package authguard
