package config

import (
	"fmt"
	"time"
)

// Validate checks the configuration for values that would misbehave at
// runtime. It assumes ApplyDefaults has already run.
func Validate(cfg *Config) error {
	if cfg.Server.ListenAddress == "" {
		return fmt.Errorf("server: listen_address is required")
	}
	if cfg.Server.ReadTimeout < 0 || cfg.Server.WriteTimeout < 0 || cfg.Server.IdleTimeout < 0 {
		return fmt.Errorf("server: timeouts must not be negative")
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server: shutdown_timeout must be positive")
	}

	if cfg.Auth.HeaderName == "" {
		return fmt.Errorf("auth: header_name is required")
	}

	for name, limits := range cfg.Tiers {
		if limits.PerMinute <= 0 || limits.PerHour <= 0 || limits.PerDay <= 0 {
			return fmt.Errorf("tiers: %q limits must all be positive", name)
		}
		if limits.PerMinute > limits.PerHour || limits.PerHour > limits.PerDay {
			return fmt.Errorf("tiers: %q windows must be non-decreasing (minute <= hour <= day)", name)
		}
	}

	if cfg.AuthGuard.LoginLimit <= 0 || cfg.AuthGuard.AuthLimit <= 0 || cfg.AuthGuard.FailedLoginLimit <= 0 {
		return fmt.Errorf("auth_guard: limits must be positive")
	}
	if cfg.AuthGuard.IPWindow <= 0 || cfg.AuthGuard.FailedLoginWindow <= 0 {
		return fmt.Errorf("auth_guard: windows must be positive")
	}
	if cfg.AuthGuard.MaxIPEntries <= 0 || cfg.AuthGuard.MaxEmailEntries <= 0 {
		return fmt.Errorf("auth_guard: cache bounds must be positive")
	}

	if cfg.HealthGuard.MaxRequests <= 0 {
		return fmt.Errorf("health_guard: max_requests must be positive")
	}
	if cfg.HealthGuard.Window <= 0 {
		return fmt.Errorf("health_guard: window must be positive")
	}

	switch cfg.Store.Backend {
	case "sqlite":
		if cfg.Store.Path == "" {
			return fmt.Errorf("store: path is required for the sqlite backend")
		}
	case "memory":
	default:
		return fmt.Errorf("store: unknown backend %q (expected sqlite or memory)", cfg.Store.Backend)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging: unknown level %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging: unknown format %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Path == "" {
		return fmt.Errorf("metrics: path is required when metrics are enabled")
	}

	if cfg.Maintenance.Enabled {
		if cfg.Maintenance.PruneSchedule == "" {
			return fmt.Errorf("maintenance: prune_schedule is required when maintenance is enabled")
		}
		// Entries younger than the day window still hold live quota state.
		if cfg.Maintenance.QuotaIdleAfter < 24*time.Hour {
			return fmt.Errorf("maintenance: quota_idle_after must be at least 24h")
		}
	}

	return nil
}
