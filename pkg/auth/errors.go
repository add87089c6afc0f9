package auth

import (
	"errors"
	"fmt"
)

// Code is a machine-readable authentication failure code, mirrored into the
// wire error body so clients can branch without parsing messages.
type Code string

const (
	// CodeMissingKey: no credential was presented.
	CodeMissingKey Code = "api_key_missing"

	// CodeInvalidFormat: the credential does not match an accepted prefix
	// scheme. Rejected before any store lookup.
	CodeInvalidFormat Code = "invalid_api_key_format"

	// CodeInvalidKey: no record matches the credential hash.
	CodeInvalidKey Code = "invalid_api_key"

	// CodeRevoked: the key record exists but is_active is false.
	CodeRevoked Code = "api_key_revoked"

	// CodeExpired: the key record exists but expires_at has passed.
	CodeExpired Code = "api_key_expired"
)

// AuthError is a caller-correctable authentication failure. It always maps
// to HTTP 401 and is never confused with a store failure.
type AuthError struct {
	Code    Code
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

func errMissingKey() *AuthError {
	return &AuthError{Code: CodeMissingKey, Message: "No API key provided"}
}

func errInvalidFormat() *AuthError {
	return &AuthError{Code: CodeInvalidFormat, Message: "API key format is not recognized"}
}

func errInvalidKey() *AuthError {
	return &AuthError{Code: CodeInvalidKey, Message: "Invalid API key"}
}

func errRevoked() *AuthError {
	return &AuthError{Code: CodeRevoked, Message: "API key has been revoked"}
}

func errExpired() *AuthError {
	return &AuthError{Code: CodeExpired, Message: "API key has expired"}
}

// AsAuthError unwraps err into an *AuthError if it is one. Errors that are
// not AuthErrors are infrastructure failures and map to HTTP 500, not 401:
// failing open on a store outage would be a security defect, and so would
// reporting it as a credential problem.
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}
