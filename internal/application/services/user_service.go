package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskloop/core/internal/domain/entities"
	"github.com/taskloop/core/internal/infrastructure/logger"
	"github.com/taskloop/core/internal/ports"
)

// UserService handles user-related operations
type UserService struct {
	userRepo ports.UserRepository
	logger   *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// UpdateUser updates a user's profile
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, req ports.UpdateUserRequest) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	if req.DisplayName != nil {
		user.DisplayName = req.DisplayName
	}
	if req.Plan != nil {
		if !req.Plan.IsValid() {
			return nil, fmt.Errorf("invalid plan %q", *req.Plan)
		}
		user.Plan = *req.Plan
	}
	if req.TeamID != nil {
		user.TeamID = req.TeamID
	}

	user.UpdatedAt = time.Now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Infow("User updated", "user_id", user.ID)

	user.PasswordHash = ""
	return user, nil
}

// ListUsers retrieves users with filtering and pagination
func (s *UserService) ListUsers(ctx context.Context, filter ports.UserFilter) ([]*entities.User, int64, error) {
	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	total, err := s.userRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	for _, u := range users {
		u.PasswordHash = ""
	}

	return users, total, nil
}
