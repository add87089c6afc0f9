package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/gateway/types"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits/authguard"
)

func newAuthHandlers() (*AuthHandlers, *authguard.Guard) {
	guard := authguard.New(authguard.DefaultConfig())
	creds := NewStaticCredentials(map[string]string{
		"alice@example.com": "correct horse battery",
	})
	return NewAuthHandlers(guard, creds, nil, nil), guard
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var resp types.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not the error envelope: %v (body %q)", err, rec.Body.String())
	}
	return resp
}

func TestLoginSuccess(t *testing.T) {
	h, _ := newAuthHandlers()

	rec := postJSON(t, h.Login, "/v1/auth/login",
		`{"email":"alice@example.com","password":"correct horse battery"}`,
		"10.0.0.1:4000")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Token) != 64 {
		t.Errorf("expected 64 hex char token, got %q", resp.Token)
	}
	if resp.Email != "alice@example.com" {
		t.Errorf("unexpected email %q", resp.Email)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h, guard := newAuthHandlers()

	rec := postJSON(t, h.Login, "/v1/auth/login",
		`{"email":"alice@example.com","password":"wrong"}`,
		"10.0.0.1:4000")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Error.Code != types.CodeInvalidCredentials {
		t.Errorf("expected invalid_credentials, got %q", resp.Error.Code)
	}

	// The failure is recorded against the account.
	if result := guard.CheckFailedLogins("alice@example.com"); !result.Allowed {
		t.Error("one failure should not lock the account")
	}
}

func TestLoginUnknownUser(t *testing.T) {
	h, _ := newAuthHandlers()

	rec := postJSON(t, h.Login, "/v1/auth/login",
		`{"email":"nobody@example.com","password":"whatever"}`,
		"10.0.0.1:4000")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	// Same code as a wrong password: no account enumeration.
	resp := decodeError(t, rec)
	if resp.Error.Code != types.CodeInvalidCredentials {
		t.Errorf("expected invalid_credentials, got %q", resp.Error.Code)
	}
}

func TestLoginLockoutAfterThreeFailures(t *testing.T) {
	h, _ := newAuthHandlers()

	body := `{"email":"alice@example.com","password":"wrong"}`
	for i := 0; i < 3; i++ {
		rec := postJSON(t, h.Login, "/v1/auth/login", body, "10.0.0.1:4000")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("failure %d: expected 401, got %d", i+1, rec.Code)
		}
	}

	// Fourth attempt is locked out even with the right password.
	rec := postJSON(t, h.Login, "/v1/auth/login",
		`{"email":"alice@example.com","password":"correct horse battery"}`,
		"10.0.0.1:4000")

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 lockout, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-RateLimit-Type"); got != authguard.LimitTypeFailedLogin {
		t.Errorf("expected X-RateLimit-Type failed_login, got %q", got)
	}
	if got := rec.Header().Get("Retry-After"); got != "300" {
		t.Errorf("expected Retry-After 300, got %q", got)
	}

	// A different account is unaffected.
	rec = postJSON(t, h.Login, "/v1/auth/login",
		`{"email":"bob@example.com","password":"whatever"}`,
		"10.0.0.1:4000")
	if rec.Code == http.StatusTooManyRequests {
		t.Error("lockout must be per account, not global")
	}
}

func TestLoginSuccessResetsFailures(t *testing.T) {
	h, guard := newAuthHandlers()

	for i := 0; i < 2; i++ {
		postJSON(t, h.Login, "/v1/auth/login",
			`{"email":"alice@example.com","password":"wrong"}`,
			"10.0.0.1:4000")
	}

	rec := postJSON(t, h.Login, "/v1/auth/login",
		`{"email":"alice@example.com","password":"correct horse battery"}`,
		"10.0.0.1:4000")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// Counter is cleared: two more failures do not lock.
	for i := 0; i < 2; i++ {
		postJSON(t, h.Login, "/v1/auth/login",
			`{"email":"alice@example.com","password":"wrong"}`,
			"10.0.0.1:4000")
	}
	if result := guard.CheckFailedLogins("alice@example.com"); !result.Allowed {
		t.Error("success should have reset the failed-login counter")
	}
}

func TestLoginValidation(t *testing.T) {
	h, _ := newAuthHandlers()

	cases := []struct {
		name string
		body string
		code string
	}{
		{"bad json", `{not json`, types.CodeInvalidJSON},
		{"missing email", `{"password":"x"}`, types.CodeValidationError},
		{"missing password", `{"email":"a@b.c"}`, types.CodeValidationError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, h.Login, "/v1/auth/login", tc.body, "10.0.0.1:4000")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			resp := decodeError(t, rec)
			if resp.Error.Code != tc.code {
				t.Errorf("expected code %q, got %q", tc.code, resp.Error.Code)
			}
		})
	}
}

func TestSignup(t *testing.T) {
	h, _ := newAuthHandlers()

	rec := postJSON(t, h.Signup, "/v1/auth/signup",
		`{"email":"new@example.com","password":"long enough pw"}`,
		"10.0.0.1:4000")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec = postJSON(t, h.Signup, "/v1/auth/signup",
		`{"email":"new@example.com","password":"short"}`,
		"10.0.0.1:4000")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", rec.Code)
	}
}

func TestRefresh(t *testing.T) {
	h, _ := newAuthHandlers()

	rec := postJSON(t, h.Refresh, "/v1/auth/refresh",
		`{"token":"0123456789abcdef"}`, "10.0.0.1:4000")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = postJSON(t, h.Refresh, "/v1/auth/refresh", `{}`, "10.0.0.1:4000")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing token, got %d", rec.Code)
	}
}
