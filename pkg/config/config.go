package config

import "time"

// Config is the root configuration for the API service.
type Config struct {
	Server      ServerConfig                `yaml:"server"`
	Auth        AuthConfig                  `yaml:"auth"`
	Tiers       map[string]TierLimitsConfig `yaml:"tiers"`
	AuthGuard   AuthGuardConfig             `yaml:"auth_guard"`
	HealthGuard HealthGuardConfig           `yaml:"health_guard"`
	Store       StoreConfig                 `yaml:"store"`
	Logging     LoggingConfig               `yaml:"logging"`
	Metrics     MetricsConfig               `yaml:"metrics"`
	Maintenance MaintenanceConfig           `yaml:"maintenance"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	ListenAddress   string        `yaml:"listen_address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes"`
}

// AuthConfig controls API key handling.
type AuthConfig struct {
	// HeaderName is the request header carrying the API key.
	HeaderName string `yaml:"header_name"`

	// WatchConfig enables hot reload of tier limits when the config
	// file changes on disk.
	WatchConfig bool `yaml:"watch_config"`
}

// TierLimitsConfig overrides the per-window quota for one tier.
type TierLimitsConfig struct {
	PerMinute int `yaml:"per_minute"`
	PerHour   int `yaml:"per_hour"`
	PerDay    int `yaml:"per_day"`
}

// AuthGuardConfig controls the brute-force guard on auth endpoints.
type AuthGuardConfig struct {
	LoginLimit        int           `yaml:"login_limit"`
	AuthLimit         int           `yaml:"auth_limit"`
	IPWindow          time.Duration `yaml:"ip_window"`
	FailedLoginLimit  int           `yaml:"failed_login_limit"`
	FailedLoginWindow time.Duration `yaml:"failed_login_window"`
	MaxIPEntries      int           `yaml:"max_ip_entries"`
	MaxEmailEntries   int           `yaml:"max_email_entries"`
}

// HealthGuardConfig controls the health probe rate guard.
type HealthGuardConfig struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
}

// StoreConfig selects the API key store backend.
type StoreConfig struct {
	// Backend is "sqlite" or "memory".
	Backend string `yaml:"backend"`

	// Path is the SQLite database file, ignored for memory.
	Path string `yaml:"path"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MaintenanceConfig controls the background pruning scheduler.
type MaintenanceConfig struct {
	Enabled bool `yaml:"enabled"`

	// PruneSchedule is a cron expression for the pruning job.
	PruneSchedule string `yaml:"prune_schedule"`

	// QuotaIdleAfter is how long a quota entry may sit untouched before
	// pruning reclaims it. Must exceed the largest quota window.
	QuotaIdleAfter time.Duration `yaml:"quota_idle_after"`

	// PurgeExpiredKeys deletes expired key rows during pruning.
	PurgeExpiredKeys bool `yaml:"purge_expired_keys"`
}
