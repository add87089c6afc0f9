package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/auth/store"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits"
)

// countingStore wraps a Store and counts lookups so tests can assert that
// malformed keys never reach the store.
type countingStore struct {
	store.Store
	lookups atomic.Int64
}

func (c *countingStore) GetByHash(ctx context.Context, hash string) (*store.KeyRecord, error) {
	c.lookups.Add(1)
	return c.Store.GetByHash(ctx, hash)
}

// failingStore returns an infrastructure error from every lookup.
type failingStore struct {
	store.Store
}

func (f *failingStore) GetByHash(ctx context.Context, hash string) (*store.KeyRecord, error) {
	return nil, errors.New("disk on fire")
}

func newTestAuthenticator(t *testing.T, s store.Store) *Authenticator {
	t.Helper()
	a := NewAuthenticator(s, limits.NewTierTable(slog.Default()), slog.Default())
	a.touchAsync = false
	return a
}

func insertKey(t *testing.T, s store.Store, rec store.KeyRecord) (plaintext string) {
	t.Helper()
	key, err := GenerateKey(true)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	rec.KeyHash = HashKey(key)
	rec.KeyPrefix = DisplayPrefix(key)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := s.Insert(context.Background(), &rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return key
}

func TestValidate(t *testing.T) {
	s := store.NewMemoryStore()
	a := newTestAuthenticator(t, s)

	key := insertKey(t, s, store.KeyRecord{
		ID:     "key-1",
		UserID: "user-1",
		Tier:   "pro",
		Active: true,
	})

	identity, err := a.Validate(context.Background(), key)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if identity.UserID != "user-1" || identity.KeyID != "key-1" {
		t.Errorf("unexpected identity %+v", identity)
	}
	if identity.Tier != limits.TierPro {
		t.Errorf("expected pro tier, got %q", identity.Tier)
	}
	if identity.Limits.PerMinute != 600 {
		t.Errorf("expected pro minute limit 600, got %d", identity.Limits.PerMinute)
	}
}

func TestValidateErrors(t *testing.T) {
	s := store.NewMemoryStore()
	a := newTestAuthenticator(t, s)

	expired := time.Now().Add(-time.Hour)
	expiredKey := insertKey(t, s, store.KeyRecord{
		ID: "key-expired", UserID: "u", Tier: "free", Active: true, ExpiresAt: &expired,
	})
	revokedKey := insertKey(t, s, store.KeyRecord{
		ID: "key-revoked", UserID: "u", Tier: "free", Active: false,
	})

	cases := []struct {
		name string
		key  string
		code Code
	}{
		{"missing", "", CodeMissingKey},
		{"bad prefix", "sk_live_0123456789abcdef", CodeInvalidFormat},
		{"unknown key", PrefixLive + "0000000000000000000000000000000000000000", CodeInvalidKey},
		{"revoked", revokedKey, CodeRevoked},
		{"expired", expiredKey, CodeExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.Validate(context.Background(), tc.key)
			authErr, ok := AsAuthError(err)
			if !ok {
				t.Fatalf("expected AuthError, got %v", err)
			}
			if authErr.Code != tc.code {
				t.Errorf("expected code %q, got %q", tc.code, authErr.Code)
			}
		})
	}
}

func TestValidateSkipsStoreForMalformedKeys(t *testing.T) {
	cs := &countingStore{Store: store.NewMemoryStore()}
	a := newTestAuthenticator(t, cs)

	for _, key := range []string{"", "not-a-key", "sk_live_abc", "dk_livX_abc"} {
		if _, err := a.Validate(context.Background(), key); err == nil {
			t.Errorf("expected error for %q", key)
		}
	}
	if n := cs.lookups.Load(); n != 0 {
		t.Errorf("malformed keys triggered %d store lookups, want 0", n)
	}

	if _, err := a.Validate(context.Background(), PrefixTest+"wellformed"); err == nil {
		t.Error("expected error for unknown key")
	}
	if n := cs.lookups.Load(); n != 1 {
		t.Errorf("expected exactly 1 lookup for a well-formed key, got %d", n)
	}
}

func TestValidateStoreFailureIsNotAuthError(t *testing.T) {
	a := newTestAuthenticator(t, &failingStore{Store: store.NewMemoryStore()})

	_, err := a.Validate(context.Background(), PrefixLive+"0123456789abcdef")
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := AsAuthError(err); ok {
		t.Error("store failure must not surface as a credential error")
	}
}

func TestValidateUnknownTierFallsBackToFree(t *testing.T) {
	s := store.NewMemoryStore()
	a := newTestAuthenticator(t, s)

	key := insertKey(t, s, store.KeyRecord{
		ID: "key-odd", UserID: "u", Tier: "platinum", Active: true,
	})

	identity, err := a.Validate(context.Background(), key)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if identity.Tier != limits.TierFree {
		t.Errorf("unknown tier should resolve to free, got %q", identity.Tier)
	}
}

func TestValidateRecordsUsage(t *testing.T) {
	s := store.NewMemoryStore()
	a := newTestAuthenticator(t, s)

	key := insertKey(t, s, store.KeyRecord{
		ID: "key-1", UserID: "u", Tier: "free", Active: true,
	})

	for i := 0; i < 3; i++ {
		if _, err := a.Validate(context.Background(), key); err != nil {
			t.Fatalf("Validate: %v", err)
		}
	}

	rec, err := s.GetByHash(context.Background(), HashKey(key))
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}
	if rec.RequestCount != 3 {
		t.Errorf("expected request count 3, got %d", rec.RequestCount)
	}
	if rec.LastUsedAt == nil {
		t.Error("expected last_used_at to be set")
	}
}

func TestValidateLenient(t *testing.T) {
	s := store.NewMemoryStore()
	a := newTestAuthenticator(t, s)

	key := insertKey(t, s, store.KeyRecord{
		ID: "key-1", UserID: "u", Tier: "enterprise", Active: true,
	})

	if identity := a.ValidateLenient(context.Background(), key); identity == nil {
		t.Error("valid key should yield an identity")
	}
	if identity := a.ValidateLenient(context.Background(), ""); identity != nil {
		t.Error("missing key should yield nil, not an error")
	}
	if identity := a.ValidateLenient(context.Background(), "garbage"); identity != nil {
		t.Error("malformed key should yield nil")
	}

	broken := newTestAuthenticator(t, &failingStore{Store: s})
	if identity := broken.ValidateLenient(context.Background(), key); identity != nil {
		t.Error("store failure should yield nil in lenient mode")
	}
}

func TestIdentityContext(t *testing.T) {
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Error("empty context should carry no identity")
	}

	want := &Identity{UserID: "u", KeyID: "k", Tier: limits.TierPro}
	ctx := WithIdentity(context.Background(), want)
	got, ok := IdentityFromContext(ctx)
	if !ok || got != want {
		t.Errorf("expected identity round trip, got %+v ok=%v", got, ok)
	}
}
