package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskloop/core/internal/domain/entities"
	"github.com/taskloop/core/internal/ports"
)

// AuthRepositoryImpl implements the AuthRepository interface
type AuthRepositoryImpl struct {
	db *sqlx.DB
}

// NewAuthRepository creates a new auth repository
func NewAuthRepository(db *sqlx.DB) ports.AuthRepository {
	return &AuthRepositoryImpl{db: db}
}

func (r *AuthRepositoryImpl) CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)`

	if _, err := r.db.ExecContext(ctx, query, userID, tokenHash, expiresAt); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}

	return nil
}

func (r *AuthRepositoryImpl) GetRefreshToken(ctx context.Context, tokenHash string) (*ports.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1`

	var token ports.RefreshToken
	err := r.db.GetContext(ctx, &token, query, tokenHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("refresh token not found")
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}

	return &token, nil
}

func (r *AuthRepositoryImpl) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	query := `
		UPDATE refresh_tokens SET revoked_at = CURRENT_TIMESTAMP
		WHERE token_hash = $1 AND revoked_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return nil
}

func (r *AuthRepositoryImpl) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE refresh_tokens SET revoked_at = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND revoked_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}

	return nil
}

func (r *AuthRepositoryImpl) CleanupExpiredTokens(ctx context.Context) error {
	query := `DELETE FROM refresh_tokens WHERE expires_at < CURRENT_TIMESTAMP`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("cleanup expired tokens: %w", err)
	}

	return nil
}

// TeamRepositoryImpl implements the TeamRepository interface
type TeamRepositoryImpl struct {
	db *sqlx.DB
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *sqlx.DB) ports.TeamRepository {
	return &TeamRepositoryImpl{db: db}
}

func (r *TeamRepositoryImpl) Create(ctx context.Context, team *entities.Team) error {
	query := `
		INSERT INTO teams (id, name, owner_id)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	if team.ID == uuid.Nil {
		team.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query, team.ID, team.Name, team.OwnerID).
		Scan(&team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create team: %w", err)
	}

	return nil
}

func (r *TeamRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Team, error) {
	query := `
		SELECT id, name, owner_id, created_at, updated_at, deleted_at
		FROM teams
		WHERE id = $1 AND deleted_at IS NULL`

	var team entities.Team
	err := r.db.GetContext(ctx, &team, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTeamNotFound
		}
		return nil, fmt.Errorf("get team by id: %w", err)
	}

	return &team, nil
}

func (r *TeamRepositoryImpl) Update(ctx context.Context, team *entities.Team) error {
	query := `
		UPDATE teams SET name = $2, owner_id = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, team.ID, team.Name, team.OwnerID).
		Scan(&team.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return entities.ErrTeamNotFound
		}
		return fmt.Errorf("update team: %w", err)
	}

	return nil
}

func (r *TeamRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE teams SET deleted_at = CURRENT_TIMESTAMP WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.ErrTeamNotFound
	}

	return nil
}
