package limits

import (
	"log/slog"
	"strings"
	"sync"
)

// Tier is a named quota policy associating a caller with per-window limits.
// Tier is a closed set; anything outside it resolves to the most restrictive
// authenticated tier (free) rather than failing the request.
type Tier string

const (
	// TierFree is the default (and most restrictive) authenticated tier.
	TierFree Tier = "free"

	// TierPro is the paid mid tier.
	TierPro Tier = "pro"

	// TierEnterprise is the highest tier.
	TierEnterprise Tier = "enterprise"

	// TierAnonymous applies to unauthenticated callers keyed by IP.
	TierAnonymous Tier = "anonymous"
)

// TierLimits holds the per-window request limits for a tier.
type TierLimits struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

// DefaultTierLimits returns the built-in tier table. Configuration may
// override individual tiers but the set of tiers is fixed.
func DefaultTierLimits() map[Tier]TierLimits {
	return map[Tier]TierLimits{
		TierFree:       {PerMinute: 60, PerHour: 1000, PerDay: 10000},
		TierPro:        {PerMinute: 600, PerHour: 20000, PerDay: 500000},
		TierEnterprise: {PerMinute: 6000, PerHour: 200000, PerDay: 10000000},
		TierAnonymous:  {PerMinute: 20, PerHour: 200, PerDay: 1000},
	}
}

// ParseTier maps a raw tier string to a known Tier.
// The second return value reports whether the string named a known tier.
func ParseTier(raw string) (Tier, bool) {
	switch Tier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierFree:
		return TierFree, true
	case TierPro:
		return TierPro, true
	case TierEnterprise:
		return TierEnterprise, true
	case TierAnonymous:
		return TierAnonymous, true
	default:
		return TierFree, false
	}
}

// TierTable resolves tier names to limits. It is safe for concurrent use and
// supports atomic replacement of the limit values on configuration reload.
type TierTable struct {
	mu     sync.RWMutex
	limits map[Tier]TierLimits
	logger *slog.Logger
}

// NewTierTable creates a tier table seeded with the built-in defaults.
func NewTierTable(logger *slog.Logger) *TierTable {
	if logger == nil {
		logger = slog.Default()
	}
	return &TierTable{
		limits: DefaultTierLimits(),
		logger: logger.With("component", "limits.tiers"),
	}
}

// Replace swaps in new limit values for the given tiers. Tiers absent from
// overrides keep their current values; unknown tier names are ignored with a
// warning. Replace is used by config hot reload.
func (t *TierTable) Replace(overrides map[string]TierLimits) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for raw, lims := range overrides {
		tier, ok := ParseTier(raw)
		if !ok {
			t.logger.Warn("ignoring unknown tier in configuration", "tier", raw)
			continue
		}
		t.limits[tier] = lims
	}
}

// Resolve maps a raw tier string (as stored on a key record) to a Tier and
// its limits. Unrecognized values map to the free tier; this is the explicit
// unknown-to-most-restrictive rule, not a lookup default.
func (t *TierTable) Resolve(raw string) (Tier, TierLimits) {
	tier, known := ParseTier(raw)
	if !known {
		t.logger.Warn("unrecognized tier on key record, falling back to free",
			"tier", raw)
		tier = TierFree
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	return tier, t.limits[tier]
}

// Anonymous returns the limits applied to unauthenticated traffic.
func (t *TierTable) Anonymous() TierLimits {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.limits[TierAnonymous]
}
