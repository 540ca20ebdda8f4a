package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dtroode/sessionkeeper/internal/logger"
	"github.com/dtroode/sessionkeeper/internal/metrics"
)

// SessionSweeper removes expired sessions.
type SessionSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Sweeper runs the expiry sweep and other housekeeping jobs on a cron schedule.
// Jobs run detached from requests and are cancelled only when the parent context ends.
type Sweeper struct {
	ctx      context.Context
	cron     *cron.Cron
	sessions SessionSweeper
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewSweeper(
	ctx context.Context,
	sessions SessionSweeper,
	timeout time.Duration,
	m *metrics.Metrics,
	logger *logger.Logger,
) *Sweeper {
	return &Sweeper{
		ctx: ctx,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
		sessions: sessions,
		timeout:  timeout,
		metrics:  m,
		logger:   logger,
	}
}

// ScheduleSweep registers the expiry sweep under the given cron spec.
func (s *Sweeper) ScheduleSweep(spec string) error {
	return s.Schedule(spec, "sweep", func(ctx context.Context) error {
		_, err := s.RunOnce(ctx)
		return err
	})
}

// Schedule registers a named job. Each run gets its own timeout context; errors are logged only.
func (s *Sweeper) Schedule(spec, name string, job func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
		defer cancel()

		if err := job(ctx); err != nil {
			s.logger.Error("Sweeper: job failed",
				"job", name,
				"error", err.Error())
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s job: %w", name, err)
	}
	return nil
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	deleted, err := s.sessions.Sweep(ctx)
	s.metrics.SweepDeleted(deleted)
	if err != nil {
		s.metrics.SweepFailed()
		return deleted, err
	}

	if deleted > 0 {
		s.logger.Info("Sweeper: expired sessions deleted", "count", deleted)
	}
	return deleted, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("Sweeper: scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
