package testgate

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a suite on a cron schedule. Spec accepts standard cron
// expressions and @every durations, e.g. "@every 5m". Scheduled runs go
// through Suite.Run and never overlap other runs.
type Scheduler struct {
	suite  *Suite
	logger Logger
	spec   string

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	running bool
}

// NewScheduler creates a scheduler for the suite from cfg.
func NewScheduler(suite *Suite, cfg ScheduleConfig, logger Logger) *Scheduler {
	if logger == nil {
		logger = NoopLogger{}
	}
	return &Scheduler{
		suite:  suite,
		logger: logger,
		spec:   cfg.Spec,
	}
}

// Start validates the spec and begins scheduled runs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSchedulerAlreadyStarted
	}
	if s.spec == "" {
		return ErrEmptyScheduleSpec
	}

	c := cron.New()
	entryID, err := c.AddFunc(s.spec, func() {
		s.logger.Info("Scheduled suite run triggered", "suite", s.suite.Name(), "spec", s.spec)
		s.suite.emit(ctx, EventTypeScheduleTriggered, map[string]interface{}{
			"spec": s.spec,
		})
		s.suite.Run(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to parse schedule spec %q: %w", s.spec, err)
	}

	c.Start()
	s.cron = c
	s.entryID = entryID
	s.running = true
	s.logger.Info("Scheduler started", "suite", s.suite.Name(), "spec", s.spec)
	return nil
}

// Stop ends scheduled runs, waiting for an in-flight run to finish or ctx
// to end, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotStarted
	}
	s.running = false
	stopCtx := s.cron.Stop()
	s.cron = nil
	s.mu.Unlock()

	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop interrupted: %w", ctx.Err())
	}
	return nil
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
