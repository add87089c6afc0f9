package handlers

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
)

// CredentialChecker verifies a login attempt. Implementations must not
// reveal through timing whether the email exists.
type CredentialChecker interface {
	Check(ctx context.Context, email, password string) (bool, error)
}

// StaticCredentials checks against an in-memory email to password map,
// comparing digests in constant time. Suitable for demos and tests; real
// deployments plug in their own checker.
type StaticCredentials struct {
	users map[string][32]byte
}

// NewStaticCredentials builds a checker from plaintext email/password
// pairs. Passwords are kept only as SHA-256 digests.
func NewStaticCredentials(users map[string]string) *StaticCredentials {
	hashed := make(map[string][32]byte, len(users))
	for email, password := range users {
		hashed[email] = sha256.Sum256([]byte(password))
	}
	return &StaticCredentials{users: hashed}
}

// Check reports whether the email and password match a known user.
func (s *StaticCredentials) Check(ctx context.Context, email, password string) (bool, error) {
	want, ok := s.users[email]
	got := sha256.Sum256([]byte(password))
	// Compare even for unknown users to keep timing flat.
	match := subtle.ConstantTimeCompare(want[:], got[:]) == 1
	return ok && match, nil
}
