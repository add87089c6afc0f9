// Package store defines the credential store consumed by the authenticator:
// key records looked up by secret hash, with lifecycle fields read and
// patched but never reasoned about beyond that. Two backends are provided,
// SQLite (default) and in-memory (development and tests).
package store
