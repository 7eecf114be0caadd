package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically deletes persisted audits older than a configured
// retention window, delegating the actual deletion to AuditStore. It is
// driven by a cron schedule (default 0 0 3 * * * — daily at 03:00 local)
// but Sweep is also a plain callable operation for tests and admin CLIs.
type Sweeper struct {
	store     AuditStore
	metrics   MetricsRecorder
	log       *slog.Logger
	retention time.Duration

	cron *cron.Cron
}

// NewSweeper constructs a Sweeper. A zero or negative retention disables
// the sweep entirely — Start becomes a no-op and Sweep always deletes
// nothing (per §4.5 edge cases).
func NewSweeper(store AuditStore, metrics MetricsRecorder, log *slog.Logger, retention time.Duration) *Sweeper {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Sweeper{store: store, metrics: metrics, log: log, retention: retention}
}

// Start schedules Sweep on the given cron spec (six-field, seconds-first,
// e.g. "0 0 3 * * *"). It is a no-op if retention is <= 0.
func (s *Sweeper) Start(spec string) error {
	if s.retention <= 0 {
		s.log.Info("retention sweep disabled: non-positive retention period")
		return nil
	}
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(spec, func() {
		s.Sweep(context.Background())
	}); err != nil {
		return err
	}
	s.cron = c
	s.cron.Start()
	return nil
}

// Stop halts the cron scheduler, waiting for any in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
}

// Sweep computes cutoff := now - retention (truncated to whole seconds,
// local UTC clock — see the Open Question in SPEC_FULL.md §9 regarding
// clock drift against the database host) and deletes everything older
// than it via AuditStore.DeleteOlderThan.
func (s *Sweeper) Sweep(ctx context.Context) {
	if s.retention <= 0 {
		return
	}
	cutoff := time.Now().UTC().Truncate(time.Second).Add(-s.retention)

	count, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error("retention sweep failed", "cutoff", cutoff, "error", err)
		return
	}
	s.metrics.RecordRetentionDelete(count)
	if count == 0 {
		s.log.Info("retention sweep completed, nothing to delete", "cutoff", cutoff)
		return
	}
	s.log.Info("retention sweep completed", "cutoff", cutoff, "deleted", count)
}
