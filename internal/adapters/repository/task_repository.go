package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/taskloop/core/internal/domain/entities"
	"github.com/taskloop/core/internal/ports"
)

const taskColumns = `id, team_id, parent_task_id, title, description, status, priority, tags,
	assignee_id, creator_id, input_method, due_date, recurring, recurrence,
	completed_at, created_at, updated_at, deleted_at`

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (id, team_id, parent_task_id, title, description, status, priority,
			tags, assignee_id, creator_id, input_method, due_date, recurring, recurrence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		task.ID, task.TeamID, task.ParentTaskID, task.Title, task.Description,
		task.Status, task.Priority, task.Tags, task.AssigneeID, task.CreatorID,
		task.InputMethod, task.DueDate, task.Recurring, task.Recurrence,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1 AND deleted_at IS NULL`, taskColumns)

	var task entities.Task
	err := r.db.GetContext(ctx, &task, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5, tags = $6,
			assignee_id = $7, due_date = $8, recurring = $9, recurrence = $10,
			completed_at = $11, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		task.ID, task.Title, task.Description, task.Status, task.Priority,
		task.Tags, task.AssigneeID, task.DueDate, task.Recurring, task.Recurrence,
		task.CompletedAt,
	).Scan(&task.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return entities.ErrTaskNotFound
		}
		return fmt.Errorf("update task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE tasks SET deleted_at = CURRENT_TIMESTAMP WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepositoryImpl) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	whereClause, args := buildTaskWhere(filter)

	orderBy := "created_at"
	switch filter.SortBy {
	case "due_date", "priority", "title", "updated_at":
		orderBy = filter.SortBy
	}

	sortOrder := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	query := fmt.Sprintf(`SELECT %s FROM tasks %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		taskColumns, whereClause, orderBy, sortOrder, len(args)+1, len(args)+2)
	args = append(args, limit, filter.Offset)

	var tasks []*entities.Task
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) Count(ctx context.Context, filter ports.TaskFilter) (int64, error) {
	whereClause, args := buildTaskWhere(filter)

	query := fmt.Sprintf(`SELECT COUNT(*) FROM tasks %s`, whereClause)

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}

	return count, nil
}

func (r *TaskRepositoryImpl) GetSuccessor(ctx context.Context, parentID uuid.UUID, dueDate time.Time) (*entities.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE parent_task_id = $1 AND due_date = $2 AND deleted_at IS NULL`, taskColumns)

	var task entities.Task
	err := r.db.GetContext(ctx, &task, query, parentID, dueDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get successor: %w", err)
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) GetDueRecurring(ctx context.Context, now time.Time) ([]*entities.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE recurring = true
			AND status = $1
			AND recurrence ->> 'nextDue' IS NOT NULL
			AND (recurrence ->> 'nextDue')::timestamptz <= $2
			AND deleted_at IS NULL
		ORDER BY (recurrence ->> 'nextDue')::timestamptz`, taskColumns)

	var tasks []*entities.Task
	if err := r.db.SelectContext(ctx, &tasks, query, entities.TaskStatusCompleted, now); err != nil {
		return nil, fmt.Errorf("get due recurring tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) GetOverdue(ctx context.Context, now time.Time) ([]*entities.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE due_date < $1 AND status != $2 AND deleted_at IS NULL
		ORDER BY due_date`, taskColumns)

	var tasks []*entities.Task
	if err := r.db.SelectContext(ctx, &tasks, query, now, entities.TaskStatusCompleted); err != nil {
		return nil, fmt.Errorf("get overdue tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) CountByStatus(ctx context.Context, teamID uuid.UUID) (map[entities.TaskStatus]int64, error) {
	query := `
		SELECT status, COUNT(*) AS count
		FROM tasks
		WHERE team_id = $1 AND deleted_at IS NULL
		GROUP BY status`

	rows, err := r.db.QueryxContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("count tasks by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[entities.TaskStatus]int64)
	for rows.Next() {
		var status entities.TaskStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

func (r *TaskRepositoryImpl) CountByPriority(ctx context.Context, teamID uuid.UUID) (map[entities.Priority]int64, error) {
	query := `
		SELECT priority, COUNT(*) AS count
		FROM tasks
		WHERE team_id = $1 AND deleted_at IS NULL
		GROUP BY priority`

	rows, err := r.db.QueryxContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("count tasks by priority: %w", err)
	}
	defer rows.Close()

	counts := make(map[entities.Priority]int64)
	for rows.Next() {
		var priority entities.Priority
		var count int64
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, fmt.Errorf("scan priority count: %w", err)
		}
		counts[priority] = count
	}

	return counts, rows.Err()
}

func (r *TaskRepositoryImpl) CountByAssignee(ctx context.Context, teamID uuid.UUID) (map[uuid.UUID]int64, error) {
	query := `
		SELECT assignee_id, COUNT(*) AS count
		FROM tasks
		WHERE team_id = $1 AND assignee_id IS NOT NULL AND deleted_at IS NULL
		GROUP BY assignee_id`

	rows, err := r.db.QueryxContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("count tasks by assignee: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int64)
	for rows.Next() {
		var assignee uuid.UUID
		var count int64
		if err := rows.Scan(&assignee, &count); err != nil {
			return nil, fmt.Errorf("scan assignee count: %w", err)
		}
		counts[assignee] = count
	}

	return counts, rows.Err()
}

// buildTaskWhere translates a TaskFilter into a WHERE clause and args.
func buildTaskWhere(filter ports.TaskFilter) (string, []interface{}) {
	conditions := []string{"deleted_at IS NULL"}
	var args []interface{}
	argIndex := 1

	add := func(cond string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(cond, argIndex))
		args = append(args, value)
		argIndex++
	}

	if filter.TeamID != nil {
		add("team_id = $%d", *filter.TeamID)
	}
	if filter.AssigneeID != nil {
		add("assignee_id = $%d", *filter.AssigneeID)
	}
	if filter.CreatorID != nil {
		add("creator_id = $%d", *filter.CreatorID)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.Priority != nil {
		add("priority = $%d", *filter.Priority)
	}
	if filter.Recurring != nil {
		add("recurring = $%d", *filter.Recurring)
	}
	if filter.InputMethod != nil {
		add("input_method = $%d", *filter.InputMethod)
	}
	if filter.DueBefore != nil {
		add("due_date <= $%d", *filter.DueBefore)
	}
	if filter.DueAfter != nil {
		add("due_date >= $%d", *filter.DueAfter)
	}
	if len(filter.Tags) > 0 {
		add("tags && $%d", pq.StringArray(filter.Tags))
	}
	if filter.Search != nil && *filter.Search != "" {
		pattern := "%" + *filter.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, pattern)
		argIndex++
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}
