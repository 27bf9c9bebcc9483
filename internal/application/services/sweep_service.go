package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/taskloop/core/internal/infrastructure/logger"
)

// SweepService runs the periodic pass that regenerates recurring tasks whose
// next occurrence has already passed without anyone completing them through
// the API. Regeneration itself stays lazy; the sweep just calls the same path
// on a schedule so stale occurrences surface without user traffic.
type SweepService struct {
	taskService *TaskService
	cron        *cron.Cron
	schedule    string
	logger      *logger.Logger
}

// NewSweepService creates a new sweep service
func NewSweepService(taskService *TaskService, schedule string, log *logger.Logger) *SweepService {
	return &SweepService{
		taskService: taskService,
		cron:        cron.New(),
		schedule:    schedule,
		logger:      log.WithComponent("sweep"),
	}
}

// Start registers the sweep job and starts the scheduler.
func (s *SweepService) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.run)
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Infof("Recurring-task sweep scheduled: %s", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *SweepService) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SweepService) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	count, err := s.taskService.SweepDueRecurring(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Recurring-task sweep failed")
		return
	}
	if count > 0 {
		s.logger.Infof("Recurring-task sweep regenerated %d task(s)", count)
	}
}
