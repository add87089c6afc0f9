// Package maintenance runs scheduled housekeeping: idle quota entries and
// expired guard windows are reclaimed and expired key rows deleted on a
// cron schedule.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/auth/store"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/config"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits/authguard"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits/ratelimit"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/telemetry/health"
)

// pruneTimeout bounds one housekeeping cycle.
const pruneTimeout = time.Minute

// Scheduler runs the housekeeping job on a cron schedule.
type Scheduler struct {
	cfg    config.MaintenanceConfig
	quota  *ratelimit.QuotaLimiter
	guard  *authguard.Guard
	probes *health.ProbeGuard
	store  store.Store
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler over the quota limiter, the auth guard,
// the probe guard and the key store. guard and probes may be nil.
func NewScheduler(cfg config.MaintenanceConfig, quota *ratelimit.QuotaLimiter, guard *authguard.Guard, probes *health.ProbeGuard, s store.Store, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cfg:    cfg,
		quota:  quota,
		guard:  guard,
		probes: probes,
		store:  s,
		cron:   cron.New(),
		logger: logger.With("component", "maintenance"),
	}
}

// Start begins scheduled housekeeping. The scheduler stops itself when the
// context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Enabled {
		s.logger.Info("maintenance disabled, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.cfg.PruneSchedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.cfg.PruneSchedule, err)
	}

	if _, err := s.cron.AddFunc(s.cfg.PruneSchedule, s.runPruning); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("maintenance scheduler started",
		"schedule", s.cfg.PruneSchedule,
		"quota_idle_after", s.cfg.QuotaIdleAfter,
		"purge_expired_keys", s.cfg.PurgeExpiredKeys,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce executes a single housekeeping cycle immediately. It is also the
// body of the scheduled job.
func (s *Scheduler) RunOnce(ctx context.Context) {
	removed := s.quota.Prune(s.cfg.QuotaIdleAfter)
	if removed > 0 {
		s.logger.Info("pruned idle quota entries",
			"removed", removed,
			"remaining", s.quota.Size(),
		)
	}

	if s.guard != nil {
		if swept := s.guard.Prune(); swept > 0 {
			s.logger.Info("swept expired guard entries", "removed", swept)
		}
	}

	if s.probes != nil {
		if swept := s.probes.Sweep(); swept > 0 {
			s.logger.Info("swept expired probe entries", "removed", swept)
		}
	}

	if !s.cfg.PurgeExpiredKeys {
		return
	}

	deleted, err := s.store.DeleteExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("failed to delete expired keys", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info("deleted expired keys", "deleted", deleted)
	}
}

func (s *Scheduler) runPruning() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()
	s.RunOnce(ctx)
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("maintenance scheduler stopped")
	}
}

// IsRunning reports whether the scheduler has been started and not stopped.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
