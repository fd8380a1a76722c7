package daemon

import (
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler wraps gocron for the optional cron-driven rebuild.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a scheduler running fn on the given cron expression.
func NewScheduler(cronExpr string, fn func()) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	if _, err := s.NewJob(gocron.CronJob(cronExpr, false), gocron.NewTask(fn)); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("invalid schedule %q: %w", cronExpr, err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins the schedule.
func (s *Scheduler) Start() {
	slog.Info("Starting rebuild scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts the scheduler down.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
