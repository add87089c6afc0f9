package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/gateway/middleware"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/gateway/types"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits/authguard"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/telemetry/metrics"
)

// AuthHandlers serves the login, signup and refresh endpoints. The per-IP
// throttle runs as middleware before these; the per-account failed-login
// lockout lives here because it needs the attempt's outcome.
type AuthHandlers struct {
	guard   *authguard.Guard
	creds   CredentialChecker
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewAuthHandlers creates the auth endpoint handlers. metrics may be nil.
func NewAuthHandlers(guard *authguard.Guard, creds CredentialChecker, m *metrics.Collector, logger *slog.Logger) *AuthHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandlers{
		guard:   guard,
		creds:   creds,
		metrics: m,
		logger:  logger.With("component", "auth_handlers"),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// Login authenticates an email/password pair.
//
// Sequencing: the account lockout is consulted before the credentials so a
// locked account rejects even a correct password. A failed attempt is
// recorded against the hashed email; a successful one clears both the
// account's failed attempts and the IP's login window.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeLogin(w, r)
	if !ok {
		return
	}

	if result := h.guard.CheckFailedLogins(req.Email); !result.Allowed {
		if h.metrics != nil {
			h.metrics.RecordGuardDenial(result.LimitType)
		}
		w.Header().Set(middleware.HeaderRateLimitType, result.LimitType)
		middleware.SetRetryAfter(w, result.RetryAfter)

		h.logger.Warn("account locked out",
			"email_hash", authguard.HashEmail(req.Email),
			"remote_addr", r.RemoteAddr,
		)
		middleware.WriteError(w, types.NewRateLimitError(
			"Too many failed login attempts. Try again later.",
		))
		return
	}

	ok, err := h.creds.Check(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Error("credential check failed", "error", err)
		middleware.WriteError(w, types.NewAPIError(
			"Unable to process login. Please try again later.",
			types.CodeInternalError,
		))
		return
	}

	ip := middleware.ClientIP(r)
	if !ok {
		h.guard.RecordFailedLogin(req.Email)
		h.logger.Warn("login failed",
			"email_hash", authguard.HashEmail(req.Email),
			"remote_addr", r.RemoteAddr,
		)
		middleware.WriteError(w, types.NewAuthenticationError(
			"Invalid email or password.",
			types.CodeInvalidCredentials,
		))
		return
	}

	h.guard.ResetFailedLogins(req.Email)
	h.guard.ResetIP(ip, authguard.LimitTypeLogin)

	token, err := generateToken()
	if err != nil {
		middleware.WriteError(w, types.NewAPIError(
			"Unable to issue session token.",
			types.CodeInternalError,
		))
		return
	}

	middleware.WriteJSON(w, http.StatusOK, tokenResponse{Token: token, Email: req.Email})
}

// Signup registers a new account. Registration itself is out of scope
// here; the endpoint validates input and answers so the auth throttle has
// real traffic shape.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeLogin(w, r)
	if !ok {
		return
	}

	if len(req.Password) < 8 {
		middleware.WriteError(w, types.NewInvalidRequestError(
			"Password must be at least 8 characters.",
			types.CodeValidationError,
			"password",
		))
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]string{
		"status": "created",
		"email":  req.Email,
	})
}

// Refresh exchanges a session token for a fresh one.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		middleware.WriteError(w, types.NewInvalidRequestError(
			"Request body must be JSON with a token field.",
			types.CodeInvalidJSON,
			"token",
		))
		return
	}

	token, err := generateToken()
	if err != nil {
		middleware.WriteError(w, types.NewAPIError(
			"Unable to issue session token.",
			types.CodeInternalError,
		))
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *AuthHandlers) decodeLogin(w http.ResponseWriter, r *http.Request) (loginRequest, bool) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, types.NewInvalidRequestError(
			"Request body must be valid JSON.",
			types.CodeInvalidJSON,
			"",
		))
		return req, false
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		middleware.WriteError(w, types.NewInvalidRequestError(
			"Email is required.",
			types.CodeValidationError,
			"email",
		))
		return req, false
	}
	if req.Password == "" {
		middleware.WriteError(w, types.NewInvalidRequestError(
			"Password is required.",
			types.CodeValidationError,
			"password",
		))
		return req, false
	}

	return req, true
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
