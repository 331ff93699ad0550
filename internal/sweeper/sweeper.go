// Package sweeper reconciles moderation requests orphaned between
// creation and classification. A crash there leaves a durable pending
// record that would otherwise sit forever; the sweeper fails it once it
// exceeds a configurable age.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sievemod/sieve/internal/config"
	"github.com/sievemod/sieve/internal/service"
)

// StaleReason is the fail_reason written on swept requests.
const StaleReason = "stale pending request"

// Sweeper periodically fails stale pending requests.
type Sweeper struct {
	store  service.Storage
	logger *slog.Logger
	cron   *cron.Cron
	maxAge time.Duration
}

// New creates a sweeper from configuration.
func New(cfg config.SweeperConfig, store service.Storage, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:  store,
		logger: logger,
		maxAge: cfg.MaxPendingAge,
	}
}

// Start schedules the sweep on the configured cron spec and runs until
// Stop is called.
func (s *Sweeper) Start(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		s.Sweep(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid sweeper schedule %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("stale-pending sweeper started",
		"schedule", schedule,
		"max_pending_age", s.maxAge)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Sweep fails every pending request older than the configured age.
func (s *Sweeper) Sweep(ctx context.Context) {
	swept, err := s.store.FailStalePending(ctx, s.maxAge, StaleReason)
	if err != nil {
		s.logger.Error("stale-pending sweep failed", "error", err)
		return
	}
	if swept > 0 {
		s.logger.Warn("failed stale pending requests",
			"count", swept,
			"max_pending_age", s.maxAge)
	}
}
