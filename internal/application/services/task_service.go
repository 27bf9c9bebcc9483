package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/taskloop/core/internal/domain/entities"
	"github.com/taskloop/core/internal/domain/recurrence"
	"github.com/taskloop/core/internal/infrastructure/logger"
	"github.com/taskloop/core/internal/ports"
)

// TaskService handles task operations, including the recurring-task
// lifecycle: deriving recurrence data at creation, previewing the next
// occurrence, and regenerating the follow-up instance on completion.
type TaskService struct {
	taskRepo ports.TaskRepository
	userRepo ports.UserRepository
	cache    ports.CacheRepository
	clock    recurrence.Clock
	logger   *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, userRepo ports.UserRepository, cache ports.CacheRepository, clock recurrence.Clock, logger *logger.Logger) *TaskService {
	if clock == nil {
		clock = recurrence.SystemClock{}
	}
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		cache:    cache,
		clock:    clock,
		logger:   logger,
	}
}

// CreateTask creates a new task, deriving recurrence data from the form
// fields when the recurring flag is set.
func (s *TaskService) CreateTask(ctx context.Context, creatorID uuid.UUID, req ports.CreateTaskRequest) (*entities.Task, error) {
	if req.AssigneeID != nil {
		if _, err := s.userRepo.GetByID(ctx, *req.AssigneeID); err != nil {
			return nil, fmt.Errorf("assignee not found: %w", err)
		}
	}

	priority := req.Priority
	if priority == "" {
		priority = entities.PriorityMedium
	}

	inputMethod := req.InputMethod
	if inputMethod == "" {
		inputMethod = entities.InputMethodManual
	}

	task := &entities.Task{
		TeamID:      req.TeamID,
		Title:       req.Title,
		Description: req.Description,
		Status:      entities.TaskStatusPending,
		Priority:    priority,
		Tags:        pq.StringArray(req.Tags),
		AssigneeID:  req.AssigneeID,
		CreatorID:   creatorID,
		InputMethod: inputMethod,
		DueDate:     req.DueDate,
	}

	if req.Recurrence.Recurring {
		var due time.Time
		if req.DueDate != nil {
			due = *req.DueDate
		}
		rec := recurrence.Derive(recurrence.DeriveInput{
			Recurring: true,
			Type:      req.Recurrence.Type,
			Time:      req.Recurrence.Time,
			Interval:  req.Recurrence.Interval,
			DueDate:   due,
		})
		if rec != nil {
			task.Recurring = true
			task.Recurrence = rec
		}
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Infow("Task created", "task_id", task.ID, "title", task.Title, "recurring", task.Recurring)

	return task, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}

	return task, nil
}

// UpdateTask updates a task's fields
func (s *TaskService) UpdateTask(ctx context.Context, id uuid.UUID, req ports.UpdateTaskRequest) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}

	if req.AssigneeID != nil {
		if _, err := s.userRepo.GetByID(ctx, *req.AssigneeID); err != nil {
			return nil, fmt.Errorf("assignee not found: %w", err)
		}
		task.AssigneeID = req.AssigneeID
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, entities.ErrInvalidStatus
		}
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Tags != nil {
		task.Tags = pq.StringArray(req.Tags)
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Recurrence != nil {
		if req.Recurrence.Recurring {
			var due time.Time
			if task.DueDate != nil {
				due = *task.DueDate
			}
			rec := recurrence.Derive(recurrence.DeriveInput{
				Recurring: true,
				Type:      req.Recurrence.Type,
				Time:      req.Recurrence.Time,
				Interval:  req.Recurrence.Interval,
				DueDate:   due,
			})
			task.Recurring = rec != nil
			task.Recurrence = rec
		} else {
			task.Recurring = false
			task.Recurrence = nil
		}
	}

	task.UpdatedAt = time.Now()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Infow("Task updated", "task_id", task.ID)

	return task, nil
}

// DeleteTask deletes a task
func (s *TaskService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if _, err := s.taskRepo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("task not found: %w", err)
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Infow("Task deleted", "task_id", id)

	return nil
}

// ListTasks retrieves tasks with filtering and pagination
func (s *TaskService) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, int64, error) {
	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	total, err := s.taskRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	return tasks, total, nil
}

// PreviewNextOccurrence computes the next occurrence for the live form
// preview. Invalid input yields Valid=false rather than an error so the UI
// can show its fallback text.
func (s *TaskService) PreviewNextOccurrence(req ports.PreviewRequest) ports.PreviewResponse {
	var due time.Time
	if req.DueDate != nil {
		due = *req.DueDate
	}

	interval := entities.DefaultCustomInterval
	if req.Interval != nil {
		interval = *req.Interval
	}

	next, ok := recurrence.NextOccurrence(due, req.Type, req.Time, interval)
	if !ok {
		return ports.PreviewResponse{Valid: false}
	}

	return ports.PreviewResponse{NextDue: &next, Valid: true}
}

// CompleteTask marks a task completed. When the task is recurring with a due
// next occurrence, the follow-up instance is created in the same call.
// Regeneration is idempotent per (task id, nextDue): a second completion
// event for the same transition finds the existing successor and does not
// create another.
func (s *TaskService) CompleteTask(ctx context.Context, id uuid.UUID) (*ports.CompleteTaskResponse, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}

	now := s.clock.Now()

	if err := task.Complete(now); err != nil {
		if errors.Is(err, entities.ErrTaskAlreadyCompleted) {
			// Completion handlers can fire twice for one transition; fall
			// through to the regeneration check so a due occurrence is still
			// spawned exactly once.
			s.logger.Debugw("Task already completed", "task_id", task.ID)
		} else {
			return nil, err
		}
	} else {
		if err := s.taskRepo.Update(ctx, task); err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
	}

	successor, err := s.regenerate(ctx, task, now)
	if err != nil {
		// The completion itself succeeded; report the regeneration failure
		// without unwinding it.
		s.logger.Errorw("Failed to regenerate recurring task", "task_id", task.ID, "error", err)
		return &ports.CompleteTaskResponse{Task: task}, nil
	}

	return &ports.CompleteTaskResponse{Task: task, Successor: successor}, nil
}

// regenerate spawns the next occurrence for a completed recurring task.
// Returns (nil, nil) when there is nothing to spawn.
func (s *TaskService) regenerate(ctx context.Context, task *entities.Task, now time.Time) (*entities.Task, error) {
	next := recurrence.Regenerate(task, now)
	if next == nil {
		return nil, nil
	}

	// Cheap duplicate guard across concurrent handlers, when a cache is
	// configured. The successor lookup below is the authoritative check.
	if s.cache != nil {
		lockKey := fmt.Sprintf("regen:%s:%d", task.ID, next.DueDate.Unix())
		acquired, err := s.cache.SetNX(ctx, lockKey, 1, time.Minute)
		if err == nil && !acquired {
			return nil, nil
		}
	}

	if existing, err := s.taskRepo.GetSuccessor(ctx, task.ID, *next.DueDate); err == nil {
		s.logger.Debugw("Successor already exists, skipping regeneration",
			"task_id", task.ID, "successor_id", existing.ID)
		return nil, nil
	} else if !errors.Is(err, entities.ErrTaskNotFound) {
		return nil, fmt.Errorf("failed to check for successor: %w", err)
	}

	if err := s.taskRepo.Create(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to create next occurrence: %w", err)
	}

	var nextDue interface{}
	if next.Recurrence != nil && next.Recurrence.NextDue != nil {
		nextDue = *next.Recurrence.NextDue
	}
	s.logger.Infow("Recurring task regenerated",
		"task_id", task.ID, "successor_id", next.ID, "due_date", *next.DueDate, "next_due", nextDue)

	return next, nil
}

// GetOverdueTasks gets all overdue tasks
func (s *TaskService) GetOverdueTasks(ctx context.Context) ([]*entities.Task, error) {
	tasks, err := s.taskRepo.GetOverdue(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to get overdue tasks: %w", err)
	}

	return tasks, nil
}

// SweepDueRecurring finds completed recurring tasks whose next occurrence is
// due and regenerates each. It is the scheduled counterpart to the check
// performed on completion and returns the number of instances spawned.
func (s *TaskService) SweepDueRecurring(ctx context.Context) (int, error) {
	now := s.clock.Now()

	due, err := s.taskRepo.GetDueRecurring(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list due recurring tasks: %w", err)
	}

	spawned := 0
	for _, task := range due {
		successor, err := s.regenerate(ctx, task, now)
		if err != nil {
			s.logger.Errorw("Sweep regeneration failed", "task_id", task.ID, "error", err)
			continue
		}
		if successor != nil {
			spawned++
		}
	}

	return spawned, nil
}
