package entities

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Common errors
var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrTaskAlreadyCompleted = errors.New("task is already completed")
	ErrPremiumRequired      = errors.New("premium plan required")
	ErrSuccessorExists      = errors.New("successor task already exists")
)

// Enums and types
type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleMember UserRole = "member"
)

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceCustom  RecurrenceType = "custom"
)

// DefaultCustomInterval is the day count used when a custom rule carries no
// usable interval.
const DefaultCustomInterval = 7

type InputMethod string

const (
	InputMethodManual InputMethod = "manual"
	InputMethodVoice  InputMethod = "voice"
)

// Recurrence is the user-configured repeating schedule attached to a task,
// plus the derived next occurrence. The JSON field names match the shape
// already present in stored task documents and must not change.
type Recurrence struct {
	Type     RecurrenceType `json:"type"`
	Time     string         `json:"time"`
	Interval *int           `json:"interval,omitempty"`
	NextDue  *time.Time     `json:"nextDue"`
}

// IntervalDays returns the effective interval for a custom rule. Absent or
// non-positive intervals fall back to DefaultCustomInterval.
func (r *Recurrence) IntervalDays() int {
	if r.Interval == nil || *r.Interval < 1 {
		return DefaultCustomInterval
	}
	return *r.Interval
}

// Value implements driver.Valuer so the rule persists as a JSONB column.
func (r *Recurrence) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

// UnmarshalJSON tolerates the nextDue shapes found in stored task documents
// that predate this service: native timestamps, several string layouts, unix
// seconds or milliseconds, and {"seconds": …} wrapper maps. Anything
// unrecognizable decodes as a nil NextDue, which ends the lineage instead of
// failing the row.
func (r *Recurrence) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     RecurrenceType `json:"type"`
		Time     string         `json:"time"`
		Interval *int           `json:"interval"`
		NextDue  interface{}    `json:"nextDue"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Type = raw.Type
	r.Time = raw.Time
	r.Interval = raw.Interval
	if t, ok := NormalizeTimestamp(raw.NextDue); ok {
		r.NextDue = &t
	} else {
		r.NextDue = nil
	}
	return nil
}

// Scan implements sql.Scanner for the JSONB column.
func (r *Recurrence) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("unsupported recurrence column type %T", src)
	}
}

// Task represents a task in the system. ParentTaskID links a regenerated
// occurrence back to the completed task that spawned it.
type Task struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	TeamID       *uuid.UUID     `json:"team_id" db:"team_id"`
	ParentTaskID *uuid.UUID     `json:"parent_task_id" db:"parent_task_id"`
	Title        string         `json:"title" db:"title"`
	Description  *string        `json:"description" db:"description"`
	Status       TaskStatus     `json:"status" db:"status"`
	Priority     Priority       `json:"priority" db:"priority"`
	Tags         pq.StringArray `json:"tags" db:"tags"`
	AssigneeID   *uuid.UUID     `json:"assignee_id" db:"assignee_id"`
	CreatorID    uuid.UUID      `json:"creator_id" db:"creator_id"`
	InputMethod  InputMethod    `json:"input_method" db:"input_method"`
	DueDate      *time.Time     `json:"due_date" db:"due_date"`
	Recurring    bool           `json:"recurring" db:"recurring"`
	Recurrence   *Recurrence    `json:"recurrence,omitempty" db:"recurrence"`
	CompletedAt  *time.Time     `json:"completed_at" db:"completed_at"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time     `json:"deleted_at,omitempty" db:"deleted_at"`
}

// User represents an account in the system
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	DisplayName  *string    `json:"display_name" db:"display_name"`
	Role         UserRole   `json:"role" db:"role"`
	Plan         Plan       `json:"plan" db:"plan"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	TeamID       *uuid.UUID `json:"team_id" db:"team_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Team groups users for the shared dashboard
type Team struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	OwnerID   uuid.UUID  `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Business logic methods for Task

func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

func (t *Task) CanBeCompleted() bool {
	return t.Status == TaskStatusPending || t.Status == TaskStatusInProgress
}

func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	return now.After(*t.DueDate) && t.Status != TaskStatusCompleted
}

// IsRecurring reports whether the task carries a usable recurrence rule.
func (t *Task) IsRecurring() bool {
	return t.Recurring && t.Recurrence != nil
}

func (t *Task) Complete(now time.Time) error {
	if t.IsCompleted() {
		return ErrTaskAlreadyCompleted
	}
	if !t.CanBeCompleted() {
		return ErrInvalidStatus
	}
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	return nil
}

// Business logic methods for User

func (u *User) IsPremium() bool {
	return u.Plan == PlanPremium
}

func (u *User) CanViewTeamDashboard(teamID uuid.UUID) bool {
	if !u.IsActive {
		return false
	}
	if u.Role == UserRoleAdmin {
		return true
	}
	return u.TeamID != nil && *u.TeamID == teamID
}

// Utility methods

func (ur UserRole) IsValid() bool {
	switch ur {
	case UserRoleAdmin, UserRoleMember:
		return true
	default:
		return false
	}
}

func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanPremium:
		return true
	default:
		return false
	}
}

func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func (rt RecurrenceType) IsValid() bool {
	switch rt {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceCustom:
		return true
	default:
		return false
	}
}

func (im InputMethod) IsValid() bool {
	switch im {
	case InputMethodManual, InputMethodVoice:
		return true
	default:
		return false
	}
}
