// Package scheduler triggers the recurring-series materializer: once
// at startup to catch up after downtime, then on a cron spec.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"fintrack/internal/services"
)

// Processor runs one materialization pass. *services.RecurringProcessor
// satisfies it.
type Processor interface {
	ProcessAll(ctx context.Context, today time.Time) (services.ProcessResult, error)
}

type Scheduler struct {
	processor Processor
	spec      string
	cron      *cron.Cron

	mu          sync.Mutex
	lastTrigger time.Time
}

func New(processor Processor, spec string) *Scheduler {
	return &Scheduler{processor: processor, spec: spec}
}

// Start runs a catch-up pass immediately, then schedules recurring
// passes per the cron spec. It returns once the cron is running.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.processor == nil {
		return fmt.Errorf("scheduler not properly initialized")
	}

	s.run(ctx)

	// Triggers and the pass share one UTC clock, so a local/UTC
	// boundary cannot shift a pass onto the wrong calendar day.
	s.cron = cron.New(cron.WithLocation(time.UTC))
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("schedule recurring pass %q: %w", s.spec, err)
	}
	s.cron.Start()

	slog.InfoContext(ctx, "Recurring scheduler started", "cron_spec", s.spec)
	return nil
}

// Stop halts future triggers and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// LastTrigger returns when the most recent pass started.
func (s *Scheduler) LastTrigger() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTrigger
}

// run executes one pass. Errors are logged, not propagated: a failed
// pass is retried at the next trigger and the conditional marker update
// keeps reruns safe.
func (s *Scheduler) run(ctx context.Context) {
	now := time.Now().UTC()
	s.mu.Lock()
	s.lastTrigger = now
	s.mu.Unlock()

	result, err := s.processor.ProcessAll(ctx, now)
	if err != nil {
		slog.ErrorContext(ctx, "Recurring pass failed", "error", err)
		return
	}
	slog.InfoContext(ctx, "Recurring pass finished",
		"processed", result.Processed,
		"deactivated", result.Deactivated,
		"skipped", result.Skipped)
}
