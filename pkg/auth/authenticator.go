package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/auth/store"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits"
)

// Identity is the result of a successful validation: who the caller is and
// which quota applies to them.
type Identity struct {
	// UserID is the key's owning user.
	UserID string

	// KeyID is the opaque key identifier, used as the quota identifier.
	KeyID string

	// Tier is the resolved quota tier.
	Tier limits.Tier

	// Limits are the per-window quotas for the tier.
	Limits limits.TierLimits
}

// touchTimeout bounds the fire-and-forget bookkeeping write so a slow store
// cannot pile up goroutines.
const touchTimeout = 5 * time.Second

// Authenticator validates presented API keys against the credential store
// and derives caller identity and quota tier.
type Authenticator struct {
	store  store.Store
	tiers  *limits.TierTable
	logger *slog.Logger

	now func() time.Time

	// touchAsync controls whether usage bookkeeping runs in a goroutine.
	// Tests flip it off to observe the write synchronously.
	touchAsync bool
}

// NewAuthenticator creates an authenticator backed by the given store and
// tier table.
func NewAuthenticator(s store.Store, tiers *limits.TierTable, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		store:      s,
		tiers:      tiers,
		logger:     logger.With("component", "auth"),
		now:        time.Now,
		touchAsync: true,
	}
}

// Validate checks the presented key and returns the caller's Identity.
//
// Failures come in two classes: *AuthError (caller-correctable, 401) and
// anything else (store failure during lookup, 500). Usage bookkeeping, meaning
// the request counter and last-used timestamp, is fire-and-forget: its failure
// is logged and never surfaced, and it does not block the decision.
func (a *Authenticator) Validate(ctx context.Context, presented string) (*Identity, error) {
	if presented == "" {
		return nil, errMissingKey()
	}
	if !HasValidPrefix(presented) {
		// Pre-filter: no store round trip for garbage credentials.
		return nil, errInvalidFormat()
	}

	rec, err := a.store.GetByHash(ctx, HashKey(presented))
	if err == store.ErrNotFound {
		return nil, errInvalidKey()
	}
	if err != nil {
		// Infrastructure failure: fail closed, distinct from a 401.
		return nil, fmt.Errorf("key lookup failed: %w", err)
	}

	now := a.now()
	if !rec.Active {
		return nil, errRevoked()
	}
	if rec.ExpiresAt != nil && !rec.ExpiresAt.After(now) {
		return nil, errExpired()
	}

	a.touch(rec.ID, now)

	tier, tierLimits := a.tiers.Resolve(rec.Tier)
	return &Identity{
		UserID: rec.UserID,
		KeyID:  rec.ID,
		Tier:   tier,
		Limits: tierLimits,
	}, nil
}

// ValidateLenient wraps Validate for endpoints that work anonymously but
// personalize behavior when a valid key is present: any failure, credential
// or infrastructure, yields no identity instead of an error.
func (a *Authenticator) ValidateLenient(ctx context.Context, presented string) *Identity {
	if presented == "" {
		return nil
	}

	identity, err := a.Validate(ctx, presented)
	if err != nil {
		if _, isAuth := AsAuthError(err); !isAuth {
			a.logger.Warn("lenient validation hit store failure", "error", err)
		}
		return nil
	}
	return identity
}

// touch updates the key's usage bookkeeping without blocking the decision.
func (a *Authenticator) touch(keyID string, usedAt time.Time) {
	write := func() {
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()

		if err := a.store.Touch(ctx, keyID, usedAt); err != nil {
			a.logger.Warn("failed to record key usage",
				"key_id", keyID,
				"error", err,
			)
		}
	}

	if a.touchAsync {
		go write()
	} else {
		write()
	}
}
