package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskloop/core/internal/domain/entities"
	"github.com/taskloop/core/internal/ports"
)

const userColumns = `id, email, username, password_hash, display_name, role, plan,
	is_active, team_id, created_at, updated_at, deleted_at`

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, display_name, role, plan, is_active, team_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash,
		user.DisplayName, user.Role, user.Plan, user.IsActive, user.TeamID,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 AND deleted_at IS NULL`, userColumns)

	var user entities.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &user, nil
}

func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 AND deleted_at IS NULL`, userColumns)

	var user entities.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *UserRepositoryImpl) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1 AND deleted_at IS NULL`, userColumns)

	var user entities.User
	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}

	return &user, nil
}

func (r *UserRepositoryImpl) Update(ctx context.Context, user *entities.User) error {
	query := `
		UPDATE users
		SET email = $2, username = $3, display_name = $4, role = $5, plan = $6,
			is_active = $7, team_id = $8, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.Username, user.DisplayName, user.Role,
		user.Plan, user.IsActive, user.TeamID,
	).Scan(&user.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return entities.ErrUserNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

func (r *UserRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrUserNotFound
	}

	return nil
}

func (r *UserRepositoryImpl) List(ctx context.Context, filter ports.UserFilter) ([]*entities.User, error) {
	whereClause, args := buildUserWhere(filter)

	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	query := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, limit, filter.Offset)

	var users []*entities.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func (r *UserRepositoryImpl) Count(ctx context.Context, filter ports.UserFilter) (int64, error) {
	whereClause, args := buildUserWhere(filter)

	query := fmt.Sprintf(`SELECT COUNT(*) FROM users %s`, whereClause)

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}

	return count, nil
}

func (r *UserRepositoryImpl) GetTeamMembers(ctx context.Context, teamID uuid.UUID) ([]*entities.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE team_id = $1 AND deleted_at IS NULL
		ORDER BY username`, userColumns)

	var users []*entities.User
	if err := r.db.SelectContext(ctx, &users, query, teamID); err != nil {
		return nil, fmt.Errorf("get team members: %w", err)
	}

	return users, nil
}

func buildUserWhere(filter ports.UserFilter) (string, []interface{}) {
	conditions := []string{"deleted_at IS NULL"}
	var args []interface{}
	argIndex := 1

	add := func(cond string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(cond, argIndex))
		args = append(args, value)
		argIndex++
	}

	if filter.Role != nil {
		add("role = $%d", *filter.Role)
	}
	if filter.Plan != nil {
		add("plan = $%d", *filter.Plan)
	}
	if filter.IsActive != nil {
		add("is_active = $%d", *filter.IsActive)
	}
	if filter.TeamID != nil {
		add("team_id = $%d", *filter.TeamID)
	}
	if filter.Search != nil && *filter.Search != "" {
		pattern := "%" + *filter.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(username ILIKE $%d OR email ILIKE $%d)", argIndex, argIndex))
		args = append(args, pattern)
		argIndex++
	}

	return "WHERE " + strings.Join(conditions, " AND "), args
}
