package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskloop/core/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter UserFilter) ([]*entities.User, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
	GetTeamMembers(ctx context.Context, teamID uuid.UUID) ([]*entities.User, error)
}

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
	Count(ctx context.Context, filter TaskFilter) (int64, error)
	// GetSuccessor returns the task spawned from parentID that is due at
	// dueDate, or entities.ErrTaskNotFound. Used to keep regeneration
	// idempotent per (task id, nextDue) pair.
	GetSuccessor(ctx context.Context, parentID uuid.UUID, dueDate time.Time) (*entities.Task, error)
	// GetDueRecurring returns completed recurring tasks whose recurrence
	// nextDue is at or before now.
	GetDueRecurring(ctx context.Context, now time.Time) ([]*entities.Task, error)
	GetOverdue(ctx context.Context, now time.Time) ([]*entities.Task, error)
	CountByStatus(ctx context.Context, teamID uuid.UUID) (map[entities.TaskStatus]int64, error)
	CountByPriority(ctx context.Context, teamID uuid.UUID) (map[entities.Priority]int64, error)
	CountByAssignee(ctx context.Context, teamID uuid.UUID) (map[uuid.UUID]int64, error)
}

// TeamRepository defines the interface for team data operations
type TeamRepository interface {
	Create(ctx context.Context, team *entities.Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Team, error)
	Update(ctx context.Context, team *entities.Team) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuthRepository defines the interface for authentication operations
type AuthRepository interface {
	CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
	CleanupExpiredTokens(ctx context.Context) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
}

// Filter types for repository queries

type UserFilter struct {
	Role      *entities.UserRole
	Plan      *entities.Plan
	IsActive  *bool
	TeamID    *uuid.UUID
	Search    *string
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

type TaskFilter struct {
	TeamID      *uuid.UUID
	AssigneeID  *uuid.UUID
	CreatorID   *uuid.UUID
	Status      *entities.TaskStatus
	Priority    *entities.Priority
	Recurring   *bool
	InputMethod *entities.InputMethod
	DueBefore   *time.Time
	DueAfter    *time.Time
	Tags        []string
	Search      *string
	Limit       int
	Offset      int
	SortBy      string
	SortOrder   string
}

// RefreshToken represents a refresh token record
type RefreshToken struct {
	ID        int64      `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	TokenHash string     `json:"token_hash" db:"token_hash"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	RevokedAt *time.Time `json:"revoked_at" db:"revoked_at"`
}

// IsExpired checks if the refresh token is expired
func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// IsRevoked checks if the refresh token is revoked
func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

// IsValid checks if the refresh token is valid
func (rt *RefreshToken) IsValid() bool {
	return !rt.IsExpired() && !rt.IsRevoked()
}
