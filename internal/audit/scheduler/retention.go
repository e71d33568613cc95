package scheduler

import (
	"time"

	"studio-admin-backend/internal/audit/repository"

	"go.uber.org/zap"
)

// RetentionScheduler periodically prunes audit entries older than the retention window
type RetentionScheduler struct {
	repo      repository.EntryRepository
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	logger    *zap.Logger
	stopChan  chan struct{}
	done      chan struct{}
}

// NewRetentionScheduler creates a new scheduler
func NewRetentionScheduler(repo repository.EntryRepository, retention, interval time.Duration, logger *zap.Logger) *RetentionScheduler {
	return &RetentionScheduler{
		repo:      repo,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		logger:    logger.Named("audit-retention"),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *RetentionScheduler) Start() {
	s.logger.Info("starting audit retention scheduler",
		zap.Duration("retention", s.retention),
		zap.Duration("interval", s.interval))

	go func() {
		defer close(s.done)

		// Run immediately on start
		s.prune()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.prune()
			case <-s.stopChan:
				s.logger.Info("scheduler stopped")
				return
			}
		}
	}()
}

// Stop stops the scheduler and waits for the running prune to finish
func (s *RetentionScheduler) Stop() {
	close(s.stopChan)
	<-s.done
}

func (s *RetentionScheduler) prune() {
	cutoff := s.now().Add(-s.retention)
	removed, err := s.repo.DeleteOlderThan(cutoff)
	if err != nil {
		s.logger.Error("failed to prune audit entries", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("pruned audit entries", zap.Int64("removed", removed), zap.Time("cutoff", cutoff))
	}
}
