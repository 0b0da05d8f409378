package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"docvault/internal/config"
	"docvault/internal/errs"
	"docvault/internal/metrics"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

// Sweeper reclaims documents whose upload was never completed. A document qualifies once it
// has been pending longer than the write URL TTL plus a grace period, so no live URL can still
// target its key.
type Sweeper struct {
	repo     repository.DocumentRepository
	store    storage.Storage
	log      *zap.Logger
	metrics  *metrics.Lifecycle
	maxAge   time.Duration
	interval time.Duration
	batch    int
	now      func() time.Time
}

// NewSweeper builds a sweeper from the upload TTL and sweeper settings.
func NewSweeper(
	repo repository.DocumentRepository,
	store storage.Storage,
	log *zap.Logger,
	m *metrics.Lifecycle,
	urlTTL time.Duration,
	cfg config.SweeperConfig,
) *Sweeper {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return &Sweeper{
		repo:     repo,
		store:    store,
		log:      log,
		metrics:  m,
		maxAge:   urlTTL + cfg.Grace,
		interval: cfg.Interval,
		batch:    batch,
		now:      time.Now,
	}
}

// SweepOnce removes one batch of stale pending documents and returns how many were removed.
// A failure on one document is logged and does not stop the batch.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.maxAge)
	docs, err := s.repo.ListStalePending(ctx, cutoff, s.batch)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, d := range docs {
		if ctx.Err() != nil {
			break
		}
		err := purge(ctx, s.repo, s.store, s.log, s.metrics, d.ID, true)
		switch {
		case err == nil:
			removed++
		case errors.Is(err, errs.ErrConflict), errors.Is(err, errs.ErrNotFound):
			// committed or removed since it was listed
			s.log.Debug("sweep_skipped", zap.String("document_id", d.ID), zap.Error(err))
		default:
			s.log.Error("sweep_failed", zap.String("document_id", d.ID), zap.Error(err))
		}
	}

	s.metrics.PendingSwept.Add(float64(removed))
	if len(docs) > 0 {
		s.log.Info("sweep_completed",
			zap.Int("candidates", len(docs)),
			zap.Int("removed", removed),
			zap.Time("cutoff", cutoff),
		)
	}
	return removed, ctx.Err()
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	interval := s.interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("sweeper_started", zap.Duration("interval", interval), zap.Duration("max_age", s.maxAge))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper_stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("sweep_list_failed", zap.Error(err))
			}
		}
	}
}
