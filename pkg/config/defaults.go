package config

import "time"

// Default values for configuration fields.
const (
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20

	DefaultAPIKeyHeader = "X-API-Key"

	DefaultLoginLimit        = 5
	DefaultAuthLimit         = 10
	DefaultIPWindow          = time.Minute
	DefaultFailedLoginLimit  = 3
	DefaultFailedLoginWindow = 5 * time.Minute
	DefaultMaxIPEntries      = 10000
	DefaultMaxEmailEntries   = 5000

	DefaultHealthMaxRequests = 10
	DefaultHealthWindow      = time.Minute

	DefaultStoreBackend = "sqlite"
	DefaultStorePath    = "data/keys.db"

	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"

	DefaultMetricsPath = "/metrics"

	DefaultPruneSchedule  = "0 * * * *"
	DefaultQuotaIdleAfter = 48 * time.Hour
)

// ApplyDefaults fills zero-valued fields with defaults. It is idempotent.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	if cfg.Auth.HeaderName == "" {
		cfg.Auth.HeaderName = DefaultAPIKeyHeader
	}

	if cfg.AuthGuard.LoginLimit == 0 {
		cfg.AuthGuard.LoginLimit = DefaultLoginLimit
	}
	if cfg.AuthGuard.AuthLimit == 0 {
		cfg.AuthGuard.AuthLimit = DefaultAuthLimit
	}
	if cfg.AuthGuard.IPWindow == 0 {
		cfg.AuthGuard.IPWindow = DefaultIPWindow
	}
	if cfg.AuthGuard.FailedLoginLimit == 0 {
		cfg.AuthGuard.FailedLoginLimit = DefaultFailedLoginLimit
	}
	if cfg.AuthGuard.FailedLoginWindow == 0 {
		cfg.AuthGuard.FailedLoginWindow = DefaultFailedLoginWindow
	}
	if cfg.AuthGuard.MaxIPEntries == 0 {
		cfg.AuthGuard.MaxIPEntries = DefaultMaxIPEntries
	}
	if cfg.AuthGuard.MaxEmailEntries == 0 {
		cfg.AuthGuard.MaxEmailEntries = DefaultMaxEmailEntries
	}

	if cfg.HealthGuard.MaxRequests == 0 {
		cfg.HealthGuard.MaxRequests = DefaultHealthMaxRequests
	}
	if cfg.HealthGuard.Window == 0 {
		cfg.HealthGuard.Window = DefaultHealthWindow
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	if cfg.Maintenance.PruneSchedule == "" {
		cfg.Maintenance.PruneSchedule = DefaultPruneSchedule
	}
	if cfg.Maintenance.QuotaIdleAfter == 0 {
		cfg.Maintenance.QuotaIdleAfter = DefaultQuotaIdleAfter
	}
}

// DefaultConfig returns a fully defaulted configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
