// Package pruner periodically drops idle in-memory rate limit buckets so a
// long-running process does not keep one bucket per IP it has ever seen.
package pruner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"agrifin/internal/ratelimit/metrics"
)

// Store is implemented by bucket.InMemoryBucketStore.
type Store interface {
	Prune(idle time.Duration) int
	Len() int
}

// Scheduler runs Store.Prune on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	store   Store
	idle    time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New registers the prune job. schedule accepts standard five-field specs
// and descriptors such as "@every 5m".
func New(store Store, schedule string, idle time.Duration, logger *slog.Logger, m *metrics.Metrics) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		store:   store,
		idle:    idle,
		logger:  logger,
		metrics: m,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce() }); err != nil {
		return nil, fmt.Errorf("register prune job %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("rate limit pruner started", "idle", s.idle.String())
}

// Stop prevents new runs and waits for a running prune to finish or ctx to
// expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.logger.Info("rate limit pruner stopped")
}

// RunOnce prunes immediately and returns the number of buckets removed.
func (s *Scheduler) RunOnce() int {
	removed := s.store.Prune(s.idle)
	remaining := s.store.Len()
	s.metrics.RecordPrune(removed, remaining)
	if removed > 0 {
		s.logger.Debug("pruned idle rate limit buckets", "removed", removed, "remaining", remaining)
	}
	return removed
}
