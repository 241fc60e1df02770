package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner executes one scheduled pass.
type Runner interface {
	RunScheduled(ctx context.Context) error
}

// Scheduler triggers periodic sync passes on a cron schedule. Overlapping passes are
// skipped rather than queued.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New parses spec (standard five-field cron syntax) and registers the pass.
func New(spec string, runner Runner, timeout time.Duration, logger *zap.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("scheduler requires a runner")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	s := &Scheduler{
		cron:    cron.New(),
		runner:  runner,
		logger:  logger,
		timeout: timeout,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	if _, err := s.cron.AddFunc(spec, s.Trigger); err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", spec, err)
	}
	return s, nil
}

// Start begins firing passes in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("sync scheduler started")
}

// Stop halts the schedule, cancels an in-flight pass and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("sync scheduler stopped")
}

// Trigger runs a single pass unless one is already in flight.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("scheduled sync still running, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	start := time.Now()
	if err := s.runner.RunScheduled(ctx); err != nil {
		s.logger.Error("scheduled sync failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled sync finished", zap.Duration("duration", time.Since(start)))
}
