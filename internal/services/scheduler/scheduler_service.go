// Package scheduler fires suite runs on a cron schedule, one at a time.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hubcheck/internal/common"
)

// RunFunc performs one scheduled run
type RunFunc func(ctx context.Context) error

// Service runs a RunFunc on a cron schedule. A tick that arrives while the
// previous run is still going is skipped.
type Service struct {
	cron   *cron.Cron
	run    RunFunc
	logger arbor.ILogger

	mu           sync.Mutex // Protects isProcessing, running, lastRun, lastError
	isProcessing bool
	running      bool
	entryID      cron.EntryID
	lastRun      time.Time
	lastError    error
	completed    int
	skipped      int

	ctx    context.Context
	cancel context.CancelFunc
}

// NewService creates a stopped scheduler
func NewService(run RunFunc, logger arbor.ILogger) *Service {
	return &Service{
		cron:   cron.New(),
		run:    run,
		logger: logger,
	}
}

// Start begins firing runs on the cron expression. Cancelling ctx stops
// in-flight runs but not the schedule; call Stop for that.
func (s *Service) Start(ctx context.Context, cronExpr string) error {
	if err := common.ValidateSchedule(cronExpr); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	id, err := s.cron.AddFunc(cronExpr, func() { s.tick() })
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.entryID = id
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("cron_expr", cronExpr).
		Str("next_run", s.cron.Entry(id).Schedule.Next(time.Now()).Format(time.RFC3339)).
		Msg("Scheduler started")
	return nil
}

// Stop halts the schedule and waits for an in-flight run to return
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cron.Remove(s.entryID)
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	<-s.cron.Stop().Done()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning returns true if the schedule is active
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns when the next run fires, or zero when stopped
func (s *Service) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Schedule.Next(time.Now())
}

// Stats reports completed and skipped ticks and the last run's outcome
func (s *Service) Stats() (completed, skipped int, lastRun time.Time, lastError error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed, s.skipped, s.lastRun, s.lastError
}

// TriggerNow runs immediately, outside the schedule, with the same overlap
// rule as a tick. It reports whether the run happened.
func (s *Service) TriggerNow() bool {
	s.logger.Info().Msg("Manual run requested")
	return s.tick()
}

// tick performs one run unless another is in progress
func (s *Service) tick() (ran bool) {
	// Panic recovery to prevent the schedule from dying with one run
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in scheduled run")
			s.finish(fmt.Errorf("panic: %v", r))
		}
	}()

	s.mu.Lock()
	if s.isProcessing {
		s.skipped++
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous run still in progress, skipping this tick")
		return false
	}
	s.isProcessing = true
	ran = true
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	s.logger.Info().Msg("Scheduled run starting")
	err := s.run(ctx)
	s.finish(err)

	if err != nil {
		s.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("Scheduled run failed")
	} else {
		s.logger.Info().Dur("duration", time.Since(start)).Msg("Scheduled run finished")
	}
	return true
}

func (s *Service) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isProcessing {
		return
	}
	s.isProcessing = false
	s.lastRun = time.Now()
	s.lastError = err
	s.completed++
}
