package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/auth"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/auth/store"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/config"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/gateway/handlers"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/gateway/types"
)

func newTestServer(t *testing.T) (http.Handler, string) {
	t.Helper()

	s := store.NewMemoryStore()
	key, err := auth.GenerateKey(true)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	rec := store.KeyRecord{
		ID:        "key-1",
		UserID:    "user-1",
		KeyHash:   auth.HashKey(key),
		KeyPrefix: auth.DisplayPrefix(key),
		Tier:      "free",
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := s.Insert(context.Background(), &rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	srv := New(Options{
		Config: config.DefaultConfig(),
		Store:  s,
		Creds: handlers.NewStaticCredentials(map[string]string{
			"alice@example.com": "correct horse battery",
		}),
	})
	return srv.Handler(), key
}

func TestServerAuthenticatedRequest(t *testing.T) {
	handler, key := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/dividends", nil)
	req.Header.Set("X-API-Key", key)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "60" {
		t.Errorf("expected free minute limit 60, got %q", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "59" {
		t.Errorf("expected remaining 59, got %q", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request ID header")
	}
}

func TestServerRejectsMissingKey(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/dividends", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var resp types.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != types.CodeAPIKeyMissing {
		t.Errorf("expected api_key_missing, got %q", resp.Error.Code)
	}
}

func TestServerStocksAllowsAnonymous(t *testing.T) {
	handler, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/stocks", nil)
	req.RemoteAddr = "10.1.1.1:1000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for anonymous screener, got %d", rec.Code)
	}
	// Anonymous tier metering: 20 per minute.
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "20" {
		t.Errorf("expected anonymous limit 20, got %q", got)
	}
}

func TestServerQuotaDenialEndToEnd(t *testing.T) {
	handler, _ := newTestServer(t)

	var last *httptest.ResponseRecorder
	for i := 0; i < 21; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/stocks", nil)
		req.RemoteAddr = "10.2.2.2:1000"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on 21st anonymous request, got %d", last.Code)
	}
	if got := last.Header().Get("X-RateLimit-Type"); got != "minute" {
		t.Errorf("expected minute denial, got %q", got)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestServerLoginFlow(t *testing.T) {
	handler, _ := newTestServer(t)

	body := `{"email":"alice@example.com","password":"correct horse battery"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
	req.RemoteAddr = "10.3.3.3:1000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a session token")
	}
}

func TestServerLoginGuardEndToEnd(t *testing.T) {
	handler, _ := newTestServer(t)

	body := `{"email":"alice@example.com","password":"wrong"}`
	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
		req.RemoteAddr = "10.4.4.4:1000"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on 6th login attempt, got %d", last.Code)
	}
	if got := last.Header().Get("X-RateLimit-Type"); got != "login" {
		t.Errorf("expected login limit type, got %q", got)
	}
}

func TestServerProbes(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.5.5.5:1000"
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /health, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	req.RemoteAddr = "10.5.5.5:1000"
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /ready, got %d", rec.Code)
	}
}

func TestServerHealthGuardEndToEnd(t *testing.T) {
	handler, _ := newTestServer(t)

	var last *httptest.ResponseRecorder
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.6.6.6:1000"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on 11th probe, got %d", last.Code)
	}
	if got := last.Header().Get("Retry-After"); got != "60" {
		t.Errorf("expected Retry-After 60, got %q", got)
	}
}

func TestServerStartAndShutdown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.ListenAddress = "127.0.0.1:0"
	srv := New(Options{Config: cfg})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	if srv.IsRunning() {
		t.Error("server should report stopped")
	}
}
