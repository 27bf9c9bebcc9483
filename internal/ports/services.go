package ports

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskloop/core/internal/domain/entities"
)

// Request/response types shared by the service and HTTP layers.

type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Username    string  `json:"username" validate:"required,min=3,max=50"`
	Password    string  `json:"password" validate:"required,min=8"`
	DisplayName *string `json:"display_name"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int64          `json:"expires_in"`
	User         *entities.User `json:"user"`
}

type UpdateUserRequest struct {
	DisplayName *string        `json:"display_name"`
	Plan        *entities.Plan `json:"plan"`
	TeamID      *uuid.UUID     `json:"team_id"`
}

// RecurrenceInput is the recurrence portion of the task form: the "make
// recurring" flag plus the rule fields read alongside the due date.
type RecurrenceInput struct {
	Recurring bool                    `json:"recurring"`
	Type      entities.RecurrenceType `json:"type"`
	Time      string                  `json:"time"`
	Interval  *int                    `json:"interval"`
}

type CreateTaskRequest struct {
	Title       string               `json:"title" validate:"required,max=200"`
	Description *string              `json:"description"`
	Priority    entities.Priority    `json:"priority" validate:"omitempty,oneof=low medium high"`
	Tags        []string             `json:"tags"`
	AssigneeID  *uuid.UUID           `json:"assignee_id"`
	TeamID      *uuid.UUID           `json:"team_id"`
	InputMethod entities.InputMethod `json:"input_method" validate:"omitempty,oneof=manual voice"`
	DueDate     *time.Time           `json:"due_date"`
	Recurrence  RecurrenceInput      `json:"recurrence_input"`
}

type UpdateTaskRequest struct {
	Title       *string              `json:"title" validate:"omitempty,max=200"`
	Description *string              `json:"description"`
	Status      *entities.TaskStatus `json:"status" validate:"omitempty,oneof=pending in-progress completed"`
	Priority    *entities.Priority   `json:"priority" validate:"omitempty,oneof=low medium high"`
	Tags        []string             `json:"tags"`
	AssigneeID  *uuid.UUID           `json:"assignee_id"`
	DueDate     *time.Time           `json:"due_date"`
	Recurrence  *RecurrenceInput     `json:"recurrence_input"`
}

// PreviewRequest asks for the live "next occurrence" preview shown while the
// task form is being edited.
type PreviewRequest struct {
	DueDate  *time.Time              `json:"due_date" validate:"required"`
	Type     entities.RecurrenceType `json:"type" validate:"required"`
	Time     string                  `json:"time" validate:"required"`
	Interval *int                    `json:"interval"`
}

type PreviewResponse struct {
	NextDue *time.Time `json:"nextDue"`
	Valid   bool       `json:"valid"`
}

// CompleteTaskResponse reports the completed task and the regenerated
// occurrence, when one was spawned.
type CompleteTaskResponse struct {
	Task      *entities.Task `json:"task"`
	Successor *entities.Task `json:"successor,omitempty"`
}

// CaptureRequest carries a voice transcript to be parsed into a draft task.
type CaptureRequest struct {
	Transcript string `json:"transcript" validate:"required"`
}

// DashboardStats is the aggregate payload behind the team dashboard charts.
type DashboardStats struct {
	TeamID         uuid.UUID                       `json:"team_id"`
	TotalTasks     int64                           `json:"total_tasks"`
	ByStatus       map[entities.TaskStatus]int64   `json:"by_status"`
	ByPriority     map[entities.Priority]int64     `json:"by_priority"`
	ByAssignee     map[uuid.UUID]int64             `json:"by_assignee"`
	OverdueCount   int64                           `json:"overdue_count"`
	CompletionRate float64                         `json:"completion_rate"`
	GeneratedAt    time.Time                       `json:"generated_at"`
}

// Digest is the mock summary of a user's task list.
type Digest struct {
	UserID      uuid.UUID `json:"user_id"`
	Summary     string    `json:"summary"`
	OpenCount   int       `json:"open_count"`
	DueToday    int       `json:"due_today"`
	Overdue     int       `json:"overdue"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SendMailRequest is the outbound-email relay payload.
type SendMailRequest struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=200"`
	Body    string `json:"body" validate:"required"`
}

type PaginatedResponse[T any] struct {
	Data   []T   `json:"data"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
