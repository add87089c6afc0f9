package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Accepted key namespaces. The prefix check is a cheap pre-filter: a
// credential with no recognized prefix is rejected before any store lookup.
const (
	// PrefixLive is the production key namespace.
	PrefixLive = "dk_live_"

	// PrefixTest is the test key namespace.
	PrefixTest = "dk_test_"
)

// secretBytes is the random secret length; 32 bytes hex-encoded gives 64
// characters of entropy after the prefix.
const secretBytes = 32

// HasValidPrefix reports whether the presented key belongs to an accepted
// namespace.
func HasValidPrefix(key string) bool {
	return strings.HasPrefix(key, PrefixLive) || strings.HasPrefix(key, PrefixTest)
}

// HashKey returns the hex SHA-256 of the plaintext key. The hash is
// deterministic; the store only ever sees this value.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// GenerateKey produces a new plaintext API key in the given namespace.
// The plaintext is shown once at creation; only its hash is stored.
func GenerateKey(live bool) (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate key secret: %w", err)
	}

	prefix := PrefixTest
	if live {
		prefix = PrefixLive
	}
	return prefix + hex.EncodeToString(buf), nil
}

// DisplayPrefix returns the short display fragment stored alongside the
// hash. It is never sufficient to authenticate.
func DisplayPrefix(key string) string {
	if len(key) <= 12 {
		return key
	}
	return key[:12]
}

// MaskKey returns a redacted rendering of a key for logging.
func MaskKey(key string) string {
	if len(key) <= 12 {
		return "***"
	}
	return key[:12] + "..." + key[len(key)-4:]
}
