package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"FocusNews/internal/ports"
	"FocusNews/internal/rules"
)

// Scheduler wires the cron driver with rule loading and scoring runs. The
// rule file is re-read on every trigger so edits take effect without a
// restart.
type Scheduler struct {
	driver    ports.Scheduler
	runner    *Runner
	rulesPath string
	logger    *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, runner *Runner, rulesPath string, log *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, runner: runner, rulesPath: rulesPath, logger: log}
}

// Start registers the recurring ingest-and-score job.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.runner == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if err := s.RunOnce(ctx, trigger); err != nil {
			s.error("run failed", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// RunOnce loads the rule set and executes a single run. Rules rejected by
// validation are reported and skipped; an unreadable rule file fails the
// whole run rather than scoring against an empty set.
func (s *Scheduler) RunOnce(ctx context.Context, trigger time.Time) error {
	loaded, issues, err := rules.Load(s.rulesPath)
	if err != nil {
		return fmt.Errorf("load rules %s: %w", s.rulesPath, err)
	}
	for _, issue := range issues {
		s.warn("rule rejected", "rule", issue.Rule, "reason", issue.Reason)
	}

	if _, err := s.runner.Run(ctx, trigger, loaded); err != nil {
		return err
	}
	return nil
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}

func (s *Scheduler) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Scheduler) error(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
