package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no key record matches a lookup.
var ErrNotFound = errors.New("api key not found")

// KeyRecord is a persisted API key. Only the SHA-256 hash of the secret is
// stored; KeyPrefix is a short display fragment and is never sufficient to
// authenticate.
type KeyRecord struct {
	// ID is the opaque key identifier.
	ID string

	// UserID is the owning user.
	UserID string

	// KeyHash is the hex SHA-256 of the plaintext key.
	KeyHash string

	// KeyPrefix is a human-readable fragment for display (e.g. "dk_live_ab12").
	KeyPrefix string

	// Tier names the quota policy ("free", "pro", "enterprise").
	Tier string

	// Active is false once the key is revoked. Revocation is irreversible
	// in intent but the row is not physically deleted.
	Active bool

	// ExpiresAt is an optional absolute expiry.
	ExpiresAt *time.Time

	// LastUsedAt is set on every successful validation.
	LastUsedAt *time.Time

	// RequestCount increments on every successful validation.
	RequestCount int64

	CreatedAt time.Time
}

// Usable reports whether the record passes lifecycle checks at the given
// time: active, and either no expiry or an expiry still in the future.
func (r *KeyRecord) Usable(now time.Time) bool {
	if !r.Active {
		return false
	}
	if r.ExpiresAt != nil && !r.ExpiresAt.After(now) {
		return false
	}
	return true
}

// Store is the credential store consumed by the authenticator and the keys
// CLI. Implementations must be safe for concurrent use.
type Store interface {
	// GetByHash looks up a record by key hash. Returns ErrNotFound when no
	// record matches.
	GetByHash(ctx context.Context, hash string) (*KeyRecord, error)

	// Insert persists a new key record.
	Insert(ctx context.Context, rec *KeyRecord) error

	// Touch increments the record's request count and sets last_used_at.
	// This is usage bookkeeping: callers treat failures as log-only.
	Touch(ctx context.Context, id string, usedAt time.Time) error

	// Revoke marks the key inactive.
	Revoke(ctx context.Context, id string) error

	// List returns all key records, newest first.
	List(ctx context.Context) ([]*KeyRecord, error)

	// DeleteExpired removes records whose expiry passed before cutoff and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases store resources.
	Close() error
}
