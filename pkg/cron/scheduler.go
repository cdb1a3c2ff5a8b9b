// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/subscription-finder/pkg/metrics"
)

// SweepSchedule runs the staged-upload sweep at the top of every hour.
const SweepSchedule = "0 * * * *"

// Sweeper removes staged files older than maxAge.
type Sweeper interface {
	Sweep(ctx context.Context, maxAge time.Duration) (int, error)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron       *cron.Cron
	sweeper    Sweeper
	staleAfter time.Duration
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(sweeper Sweeper, staleAfter time.Duration, m *metrics.Metrics, logger *slog.Logger) *Scheduler {
	if m == nil {
		m = metrics.NewNoop()
	}
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:       c,
		sweeper:    sweeper,
		staleAfter: staleAfter,
		metrics:    m,
		logger:     logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(SweepSchedule, s.sweepStaleUploads)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow runs the sweep synchronously.
func (s *Scheduler) RunNow() {
	s.sweepStaleUploads()
}

// sweepStaleUploads removes uploads a crashed request never cleaned up.
func (s *Scheduler) sweepStaleUploads() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := s.sweeper.Sweep(ctx, s.staleAfter)
	if removed > 0 {
		s.metrics.TempFilesSwept.Add(float64(removed))
	}
	if err != nil {
		s.logger.Error("failed to sweep staged uploads",
			slog.Int("removed", removed),
			slog.Any("error", err),
		)
		return
	}

	s.logger.Info("staged upload sweep completed",
		slog.Int("removed", removed),
		slog.Duration("stale_after", s.staleAfter),
	)
}
