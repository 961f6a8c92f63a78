// Package scheduler runs the periodic storage hygiene jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/movie-backend/internal/logging"
	"github.com/getsentry/sentry-go"
	"github.com/go-co-op/gocron"
	"gorm.io/gorm"
)

const logCleanupInterval = 24 * time.Hour

// TokenPurger is the part of store.TokenStore the token sweep needs.
type TokenPurger interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Config struct {
	TokenInterval  time.Duration
	TokenRetention time.Duration
	LogRetention   time.Duration
}

type Scheduler struct {
	cron    *gocron.Scheduler
	tokens  TokenPurger
	db      *gorm.DB
	cfg     Config
	nowFunc func() time.Time
}

// New builds a scheduler. A nil db disables the system log sweep.
func New(tokens TokenPurger, db *gorm.DB, cfg Config) *Scheduler {
	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()
	return &Scheduler{
		cron:    cron,
		tokens:  tokens,
		db:      db,
		cfg:     cfg,
		nowFunc: time.Now,
	}
}

// Start registers the jobs and runs them in the background. Each job also
// runs once immediately.
func (s *Scheduler) Start() error {
	if _, err := s.cron.Every(s.cfg.TokenInterval).Do(s.CleanupTokens); err != nil {
		return fmt.Errorf("schedule token cleanup: %w", err)
	}
	if s.db != nil {
		if _, err := s.cron.Every(logCleanupInterval).Do(s.CleanupLogs); err != nil {
			return fmt.Errorf("schedule log cleanup: %w", err)
		}
	}
	s.cron.StartAsync()
	slog.Info("cleanup scheduler started", "token_interval", s.cfg.TokenInterval.String(), "token_retention", s.cfg.TokenRetention.String())
	return nil
}

// Stop waits for running jobs and stops the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// CleanupTokens deletes tokens that expired more than the retention period
// ago. Failures are logged and reported, never returned: the next run retries.
func (s *Scheduler) CleanupTokens() {
	cutoff := s.nowFunc().UTC().Add(-s.cfg.TokenRetention)
	deleted, err := s.tokens.DeleteExpiredBefore(context.Background(), cutoff)
	if err != nil {
		slog.Error("token cleanup failed", "action", "token_cleanup", "error", err)
		sentry.CaptureException(err)
		return
	}
	slog.Info("token cleanup completed", "action", "token_cleanup", "deleted", deleted, "cutoff", cutoff)
}

func (s *Scheduler) CleanupLogs() {
	cutoff := s.nowFunc().UTC().Add(-s.cfg.LogRetention)
	deleted, err := logging.PurgeBefore(context.Background(), s.db, cutoff)
	if err != nil {
		slog.Error("log cleanup failed", "action", "log_cleanup", "error", err)
		sentry.CaptureException(err)
		return
	}
	if deleted > 0 {
		slog.Info("log cleanup completed", "action", "log_cleanup", "deleted", deleted)
	}
}
