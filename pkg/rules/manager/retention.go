package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig configures journal pruning.
type RetentionConfig struct {
	// RetentionDays keeps compile attempts for this many days.
	RetentionDays int

	// Schedule is the cron expression for pruning, e.g. "0 3 * * *".
	Schedule string
}

// RetentionScheduler prunes the compile journal on a cron schedule.
type RetentionScheduler struct {
	journal *Journal
	config  RetentionConfig
	cron    *cron.Cron
	now     func() time.Time
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewRetentionScheduler creates a scheduler pruning journal.
func NewRetentionScheduler(journal *Journal, cfg RetentionConfig) (*RetentionScheduler, error) {
	if journal == nil {
		return nil, fmt.Errorf("journal cannot be nil")
	}
	if cfg.RetentionDays <= 0 {
		return nil, fmt.Errorf("retention days must be positive, got %d", cfg.RetentionDays)
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", cfg.Schedule, err)
	}

	return &RetentionScheduler{
		journal: journal,
		config:  cfg,
		cron:    cron.New(),
		now:     time.Now,
		logger:  slog.Default().With("component", "rules.retention"),
	}, nil
}

// Prune deletes attempts older than the retention period once.
func (s *RetentionScheduler) Prune(ctx context.Context) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -s.config.RetentionDays)
	return s.journal.Prune(ctx, cutoff)
}

// Start schedules pruning until ctx is cancelled or Stop is called.
func (s *RetentionScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("retention scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, func() { s.runPruning(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("Retention scheduler started",
		"schedule", s.config.Schedule,
		"retention_days", s.config.RetentionDays,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *RetentionScheduler) runPruning(ctx context.Context) {
	deleted, err := s.Prune(ctx)
	if err != nil {
		s.logger.Error("Scheduled journal pruning failed", "error", err)
		return
	}
	s.logger.Info("Scheduled journal pruning completed", "deleted", deleted)
}

// Stop stops the schedule and waits for a running prune to finish.
func (s *RetentionScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("Retention scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *RetentionScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled pruning time.
func (s *RetentionScheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
