package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults and
// validates the result. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and then
// applies DIVAPI_SECTION_FIELD environment variable overrides. Environment
// variables always win over file values.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString("DIVAPI_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	setDuration("DIVAPI_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("DIVAPI_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	setDuration("DIVAPI_SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	setDuration("DIVAPI_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	setInt("DIVAPI_SERVER_MAX_HEADER_BYTES", &cfg.Server.MaxHeaderBytes)

	setString("DIVAPI_AUTH_HEADER_NAME", &cfg.Auth.HeaderName)
	setBool("DIVAPI_AUTH_WATCH_CONFIG", &cfg.Auth.WatchConfig)

	setInt("DIVAPI_AUTH_GUARD_LOGIN_LIMIT", &cfg.AuthGuard.LoginLimit)
	setInt("DIVAPI_AUTH_GUARD_AUTH_LIMIT", &cfg.AuthGuard.AuthLimit)
	setDuration("DIVAPI_AUTH_GUARD_IP_WINDOW", &cfg.AuthGuard.IPWindow)
	setInt("DIVAPI_AUTH_GUARD_FAILED_LOGIN_LIMIT", &cfg.AuthGuard.FailedLoginLimit)
	setDuration("DIVAPI_AUTH_GUARD_FAILED_LOGIN_WINDOW", &cfg.AuthGuard.FailedLoginWindow)
	setInt("DIVAPI_AUTH_GUARD_MAX_IP_ENTRIES", &cfg.AuthGuard.MaxIPEntries)
	setInt("DIVAPI_AUTH_GUARD_MAX_EMAIL_ENTRIES", &cfg.AuthGuard.MaxEmailEntries)

	setInt("DIVAPI_HEALTH_GUARD_MAX_REQUESTS", &cfg.HealthGuard.MaxRequests)
	setDuration("DIVAPI_HEALTH_GUARD_WINDOW", &cfg.HealthGuard.Window)

	setString("DIVAPI_STORE_BACKEND", &cfg.Store.Backend)
	setString("DIVAPI_STORE_PATH", &cfg.Store.Path)

	setString("DIVAPI_LOGGING_LEVEL", &cfg.Logging.Level)
	setString("DIVAPI_LOGGING_FORMAT", &cfg.Logging.Format)

	setBool("DIVAPI_METRICS_ENABLED", &cfg.Metrics.Enabled)
	setString("DIVAPI_METRICS_PATH", &cfg.Metrics.Path)

	setBool("DIVAPI_MAINTENANCE_ENABLED", &cfg.Maintenance.Enabled)
	setString("DIVAPI_MAINTENANCE_PRUNE_SCHEDULE", &cfg.Maintenance.PruneSchedule)
	setDuration("DIVAPI_MAINTENANCE_QUOTA_IDLE_AFTER", &cfg.Maintenance.QuotaIdleAfter)
	setBool("DIVAPI_MAINTENANCE_PURGE_EXPIRED_KEYS", &cfg.Maintenance.PurgeExpiredKeys)
}

func setString(env string, dst *string) {
	if val := os.Getenv(env); val != "" {
		*dst = val
	}
}

func setInt(env string, dst *int) {
	if val := os.Getenv(env); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setBool(env string, dst *bool) {
	if val := os.Getenv(env); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setDuration(env string, dst *time.Duration) {
	if val := os.Getenv(env); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
