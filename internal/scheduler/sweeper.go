package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const sweepTimeout = 5 * time.Minute

// SubscriptionFacade exposes the sweep operation run on schedule.
type SubscriptionFacade interface {
	SweepSubscriptions(ctx context.Context) (int, error)
}

// Sweeper closes ended subscriptions on a cron schedule with seconds precision.
type Sweeper struct {
	facade SubscriptionFacade
	spec   string
	logger *slog.Logger

	cron *cron.Cron
	mu   sync.Mutex
}

// NewSweeper validates spec and builds a stopped sweeper.
func NewSweeper(facade SubscriptionFacade, spec string, logger *slog.Logger) (*Sweeper, error) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", spec, err)
	}
	return &Sweeper{facade: facade, spec: spec, logger: logger}, nil
}

// Start schedules the sweep. Runs that overlap a still running sweep are skipped.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	runCtx := context.WithoutCancel(ctx)
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.spec, func() { s.Run(runCtx) }); err != nil {
		return fmt.Errorf("schedule subscription sweep: %w", err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("subscription sweep scheduled", slog.String("spec", s.spec))
	return nil
}

// Stop prevents new runs and waits for the running one until ctx is done.
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run performs one sweep and reports how many subscriptions were closed.
func (s *Sweeper) Run(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	closed, err := s.facade.SweepSubscriptions(ctx)
	if err != nil {
		s.logger.Error("subscription sweep failed", slog.String("error", err.Error()))
		return 0
	}
	s.logger.Debug("subscription sweep finished", slog.Int("closed", closed))
	return closed
}
