package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/core/internal/domain/entities"
	"github.com/taskloop/core/internal/domain/recurrence"
	"github.com/taskloop/core/internal/infrastructure/logger"
	"github.com/taskloop/core/internal/ports"
)

// fakeTaskRepo is an in-memory ports.TaskRepository.
type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*entities.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uuid.UUID]*entities.Task)}
}

func (r *fakeTaskRepo) Create(_ context.Context, task *entities.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	clone := *task
	return &clone, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *entities.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return entities.ErrTaskNotFound
	}
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return entities.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) List(_ context.Context, _ ports.TaskFilter) ([]*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		clone := *task
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeTaskRepo) Count(_ context.Context, _ ports.TaskFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.tasks)), nil
}

func (r *fakeTaskRepo) GetSuccessor(_ context.Context, parentID uuid.UUID, dueDate time.Time) (*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, task := range r.tasks {
		if task.ParentTaskID != nil && *task.ParentTaskID == parentID &&
			task.DueDate != nil && task.DueDate.Equal(dueDate) {
			clone := *task
			return &clone, nil
		}
	}
	return nil, entities.ErrTaskNotFound
}

func (r *fakeTaskRepo) GetDueRecurring(_ context.Context, now time.Time) ([]*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Task
	for _, task := range r.tasks {
		if task.Status == entities.TaskStatusCompleted && task.IsRecurring() &&
			task.Recurrence.NextDue != nil && !task.Recurrence.NextDue.After(now) {
			clone := *task
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) GetOverdue(_ context.Context, now time.Time) ([]*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Task
	for _, task := range r.tasks {
		if task.IsOverdue(now) {
			clone := *task
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) CountByStatus(_ context.Context, _ uuid.UUID) (map[entities.TaskStatus]int64, error) {
	return map[entities.TaskStatus]int64{}, nil
}

func (r *fakeTaskRepo) CountByPriority(_ context.Context, _ uuid.UUID) (map[entities.Priority]int64, error) {
	return map[entities.Priority]int64{}, nil
}

func (r *fakeTaskRepo) CountByAssignee(_ context.Context, _ uuid.UUID) (map[uuid.UUID]int64, error) {
	return map[uuid.UUID]int64{}, nil
}

func (r *fakeTaskRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// fakeUserRepo resolves every ID to a stub user.
type fakeUserRepo struct {
	ports.UserRepository
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	return &entities.User{ID: id, Role: entities.UserRoleMember, Plan: entities.PlanFree}, nil
}

func newTestTaskService(repo *fakeTaskRepo, now time.Time) *TaskService {
	return NewTaskService(repo, &fakeUserRepo{}, nil, recurrence.FixedClock{T: now}, logger.NewNop())
}

func parseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestCreateTask_DerivesRecurrence(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestTaskService(repo, time.Now())

	due := parseRFC3339(t, "2024-03-15T00:00:00Z")
	task, err := svc.CreateTask(context.Background(), uuid.New(), ports.CreateTaskRequest{
		Title:   "Weekly report",
		DueDate: &due,
		Recurrence: ports.RecurrenceInput{
			Recurring: true,
			Type:      entities.RecurrenceWeekly,
			Time:      "14:30",
		},
	})
	require.NoError(t, err)
	assert.True(t, task.Recurring)
	require.NotNil(t, task.Recurrence)
	require.NotNil(t, task.Recurrence.NextDue)
	assert.Equal(t, parseRFC3339(t, "2024-03-22T14:30:00Z"), *task.Recurrence.NextDue)
	assert.Equal(t, entities.TaskStatusPending, task.Status)
}

func TestCreateTask_NonRecurringWithoutDueDate(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestTaskService(repo, time.Now())

	task, err := svc.CreateTask(context.Background(), uuid.New(), ports.CreateTaskRequest{
		Title: "One-off",
		Recurrence: ports.RecurrenceInput{
			Recurring: true,
			Type:      entities.RecurrenceDaily,
			Time:      "09:00",
		},
	})
	require.NoError(t, err)
	// Recurring flag without a due date derives nothing.
	assert.False(t, task.Recurring)
	assert.Nil(t, task.Recurrence)
}

func TestCompleteTask_SpawnsDueSuccessor(t *testing.T) {
	repo := newFakeTaskRepo()
	now := parseRFC3339(t, "2024-03-23T08:00:00Z")
	svc := newTestTaskService(repo, now)

	nextDue := parseRFC3339(t, "2024-03-22T14:30:00Z")
	task := &entities.Task{
		Title:     "Water the plants",
		Status:    entities.TaskStatusInProgress,
		Priority:  entities.PriorityMedium,
		CreatorID: uuid.New(),
		Recurring: true,
		Recurrence: &entities.Recurrence{
			Type:    entities.RecurrenceWeekly,
			Time:    "14:30",
			NextDue: &nextDue,
		},
	}
	require.NoError(t, repo.Create(context.Background(), task))

	resp, err := svc.CompleteTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusCompleted, resp.Task.Status)
	require.NotNil(t, resp.Task.CompletedAt)

	require.NotNil(t, resp.Successor)
	assert.Equal(t, entities.TaskStatusInProgress, resp.Successor.Status)
	assert.Equal(t, nextDue, *resp.Successor.DueDate)
	assert.Equal(t, task.ID, *resp.Successor.ParentTaskID)
	assert.Equal(t, 2, repo.len())
}

func TestCompleteTask_FutureNextDueDoesNotSpawn(t *testing.T) {
	repo := newFakeTaskRepo()
	now := parseRFC3339(t, "2024-03-20T08:00:00Z")
	svc := newTestTaskService(repo, now)

	nextDue := parseRFC3339(t, "2024-03-22T14:30:00Z")
	task := &entities.Task{
		Title:     "Water the plants",
		Status:    entities.TaskStatusPending,
		Priority:  entities.PriorityMedium,
		CreatorID: uuid.New(),
		Recurring: true,
		Recurrence: &entities.Recurrence{
			Type:    entities.RecurrenceWeekly,
			Time:    "14:30",
			NextDue: &nextDue,
		},
	}
	require.NoError(t, repo.Create(context.Background(), task))

	resp, err := svc.CompleteTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Nil(t, resp.Successor)
	assert.Equal(t, 1, repo.len())
}

func TestCompleteTask_IdempotentRegeneration(t *testing.T) {
	repo := newFakeTaskRepo()
	now := parseRFC3339(t, "2024-03-23T08:00:00Z")
	svc := newTestTaskService(repo, now)

	nextDue := parseRFC3339(t, "2024-03-22T14:30:00Z")
	task := &entities.Task{
		Title:     "Water the plants",
		Status:    entities.TaskStatusInProgress,
		Priority:  entities.PriorityMedium,
		CreatorID: uuid.New(),
		Recurring: true,
		Recurrence: &entities.Recurrence{
			Type:    entities.RecurrenceWeekly,
			Time:    "14:30",
			NextDue: &nextDue,
		},
	}
	require.NoError(t, repo.Create(context.Background(), task))

	first, err := svc.CompleteTask(context.Background(), task.ID)
	require.NoError(t, err)
	require.NotNil(t, first.Successor)

	// Duplicate completion event for the same transition.
	second, err := svc.CompleteTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Nil(t, second.Successor)
	assert.Equal(t, 2, repo.len())
}

func TestCompleteTask_NonRecurring(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestTaskService(repo, time.Now())

	task := &entities.Task{
		Title:     "One-off",
		Status:    entities.TaskStatusPending,
		Priority:  entities.PriorityLow,
		CreatorID: uuid.New(),
	}
	require.NoError(t, repo.Create(context.Background(), task))

	resp, err := svc.CompleteTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusCompleted, resp.Task.Status)
	assert.Nil(t, resp.Successor)
	assert.Equal(t, 1, repo.len())
}

func TestCompleteTask_NotFound(t *testing.T) {
	svc := newTestTaskService(newFakeTaskRepo(), time.Now())
	_, err := svc.CompleteTask(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestSweepDueRecurring(t *testing.T) {
	repo := newFakeTaskRepo()
	now := parseRFC3339(t, "2024-03-23T08:00:00Z")
	svc := newTestTaskService(repo, now)

	dueAt := parseRFC3339(t, "2024-03-22T14:30:00Z")
	futureAt := parseRFC3339(t, "2024-03-29T14:30:00Z")
	completedAt := parseRFC3339(t, "2024-03-22T10:00:00Z")

	// Completed recurring task whose occurrence is due: swept.
	overdue := &entities.Task{
		Title:       "Weekly report",
		Status:      entities.TaskStatusCompleted,
		Priority:    entities.PriorityHigh,
		CreatorID:   uuid.New(),
		CompletedAt: &completedAt,
		Recurring:   true,
		Recurrence: &entities.Recurrence{
			Type:    entities.RecurrenceWeekly,
			Time:    "14:30",
			NextDue: &dueAt,
		},
	}
	require.NoError(t, repo.Create(context.Background(), overdue))

	// Completed recurring task with a future occurrence: untouched.
	upcoming := &entities.Task{
		Title:       "Monthly review",
		Status:      entities.TaskStatusCompleted,
		Priority:    entities.PriorityMedium,
		CreatorID:   uuid.New(),
		CompletedAt: &completedAt,
		Recurring:   true,
		Recurrence: &entities.Recurrence{
			Type:    entities.RecurrenceMonthly,
			Time:    "14:30",
			NextDue: &futureAt,
		},
	}
	require.NoError(t, repo.Create(context.Background(), upcoming))

	spawned, err := svc.SweepDueRecurring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, spawned)
	assert.Equal(t, 3, repo.len())

	// A second sweep finds the successor already in place.
	spawned, err = svc.SweepDueRecurring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, spawned)
	assert.Equal(t, 3, repo.len())
}

func TestPreviewNextOccurrence(t *testing.T) {
	svc := newTestTaskService(newFakeTaskRepo(), time.Now())

	due := parseRFC3339(t, "2024-03-15T00:00:00Z")
	resp := svc.PreviewNextOccurrence(ports.PreviewRequest{
		DueDate: &due,
		Type:    entities.RecurrenceWeekly,
		Time:    "14:30",
	})
	require.True(t, resp.Valid)
	require.NotNil(t, resp.NextDue)
	assert.Equal(t, parseRFC3339(t, "2024-03-22T14:30:00Z"), *resp.NextDue)
}

func TestPreviewNextOccurrence_Invalid(t *testing.T) {
	svc := newTestTaskService(newFakeTaskRepo(), time.Now())

	due := parseRFC3339(t, "2024-03-15T00:00:00Z")

	resp := svc.PreviewNextOccurrence(ports.PreviewRequest{
		DueDate: &due,
		Type:    entities.RecurrenceType("yearly"),
		Time:    "09:00",
	})
	assert.False(t, resp.Valid)
	assert.Nil(t, resp.NextDue)

	resp = svc.PreviewNextOccurrence(ports.PreviewRequest{
		DueDate: &due,
		Type:    entities.RecurrenceDaily,
		Time:    "25:99",
	})
	assert.False(t, resp.Valid)

	resp = svc.PreviewNextOccurrence(ports.PreviewRequest{
		Type: entities.RecurrenceDaily,
		Time: "09:00",
	})
	assert.False(t, resp.Valid)
}
