// Package server assembles the admission chain and HTTP listener.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/auth"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/auth/store"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/config"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/gateway/handlers"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/gateway/middleware"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits/authguard"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits/ratelimit"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/telemetry/health"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/telemetry/metrics"
)

// Server is the HTTP front end: auth, quota and guard middleware wired
// around the data and auth endpoints.
type Server struct {
	cfg    *config.Config
	store  store.Store
	tiers  *limits.TierTable
	quota  *ratelimit.QuotaLimiter
	guard  *authguard.Guard
	probes *health.ProbeGuard

	metrics *metrics.Collector
	creds   handlers.CredentialChecker
	logger  *slog.Logger

	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Options carries the assembled components into the server. Any nil field
// gets a working default, so tests can construct only what they probe.
type Options struct {
	Config  *config.Config
	Store   store.Store
	Tiers   *limits.TierTable
	Quota   *ratelimit.QuotaLimiter
	Guard   *authguard.Guard
	Probes  *health.ProbeGuard
	Metrics *metrics.Collector
	Creds   handlers.CredentialChecker
	Logger  *slog.Logger
}

// New creates a server from the options.
func New(opts Options) *Server {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tiers == nil {
		opts.Tiers = limits.NewTierTable(opts.Logger)
	}
	if opts.Quota == nil {
		opts.Quota = ratelimit.NewQuotaLimiter()
	}
	if opts.Guard == nil {
		opts.Guard = authguard.New(guardConfig(opts.Config.AuthGuard))
	}
	if opts.Probes == nil {
		opts.Probes = health.NewProbeGuard(
			opts.Config.HealthGuard.MaxRequests, opts.Config.HealthGuard.Window)
	}
	if opts.Creds == nil {
		opts.Creds = handlers.NewStaticCredentials(nil)
	}

	return &Server{
		cfg:     opts.Config,
		store:   opts.Store,
		tiers:   opts.Tiers,
		quota:   opts.Quota,
		guard:   opts.Guard,
		probes:  opts.Probes,
		metrics: opts.Metrics,
		creds:   opts.Creds,
		logger:  opts.Logger.With("component", "server"),
	}
}

func guardConfig(cfg config.AuthGuardConfig) authguard.Config {
	return authguard.Config{
		LoginLimit:        cfg.LoginLimit,
		AuthLimit:         cfg.AuthLimit,
		IPWindow:          cfg.IPWindow,
		FailedLoginLimit:  cfg.FailedLoginLimit,
		FailedLoginWindow: cfg.FailedLoginWindow,
		MaxIPEntries:      cfg.MaxIPEntries,
		MaxEmailEntries:   cfg.MaxEmailEntries,
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:           s.cfg.Server.ListenAddress,
		Handler:        s.setupRoutes(),
		ReadTimeout:    s.cfg.Server.ReadTimeout,
		WriteTimeout:   s.cfg.Server.WriteTimeout,
		IdleTimeout:    s.cfg.Server.IdleTimeout,
		MaxHeaderBytes: s.cfg.Server.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", s.cfg.Server.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown",
			"timeout", s.cfg.Server.ShutdownTimeout.String(),
		)

		shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// setupRoutes builds the route table and middleware chain.
//
// The data endpoints run auth before quota so metering hits the right
// identity; the auth endpoints run the per-IP guard before any body
// parsing; the probes run only the probe guard.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	authenticator := auth.NewAuthenticator(s.store, s.tiers, s.logger)
	authMW := middleware.NewAuthMiddleware(authenticator, s.cfg.Auth.HeaderName, s.metrics, s.logger)
	quotaMW := middleware.NewQuotaMiddleware(s.quota, s.tiers, s.metrics, s.logger)
	guardMW := middleware.NewGuardMiddleware(s.guard, s.metrics, s.logger)

	// Metered data endpoints. Dividends requires a key; the screener
	// tolerates anonymous callers at the anonymous quota.
	mux.Handle("/v1/dividends",
		authMW.Handle(quotaMW.Handle(http.HandlerFunc(handlers.Dividends))))
	mux.Handle("/v1/stocks",
		authMW.HandleOptional(quotaMW.Handle(http.HandlerFunc(handlers.Stocks))))

	// Auth endpoints behind the per-IP guard.
	authHandlers := handlers.NewAuthHandlers(s.guard, s.creds, s.metrics, s.logger)
	mux.Handle("/v1/auth/login",
		guardMW.HandleLogin(http.HandlerFunc(authHandlers.Login)))
	mux.Handle("/v1/auth/signup",
		guardMW.HandleAuth(http.HandlerFunc(authHandlers.Signup)))
	mux.Handle("/v1/auth/refresh",
		guardMW.HandleAuth(http.HandlerFunc(authHandlers.Refresh)))

	// Probes behind their own guard, outside auth and quota.
	probes := health.NewEndpoints(s.probes, s.store.Ping)
	if s.metrics != nil {
		probes.SetDenyHook(s.metrics.RecordProbeDenial)
	}
	mux.Handle("/health", probes.LivenessHandler())
	mux.Handle("/ready", probes.ReadinessHandler())

	if s.metrics != nil && s.cfg.Metrics.Enabled {
		mux.Handle(s.cfg.Metrics.Path, s.metrics.Handler())
	}

	var handler http.Handler = mux
	if s.metrics != nil {
		metricsMW := middleware.NewMetricsMiddleware(s.metrics, []string{
			"/v1/dividends", "/v1/stocks",
			"/v1/auth/login", "/v1/auth/signup", "/v1/auth/refresh",
			"/health", "/ready",
		})
		handler = metricsMW.Handle(handler)
	}
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(handler)

	return handler
}

// Handler returns the configured HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// IsRunning reports whether Start has begun and Shutdown has not finished.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
