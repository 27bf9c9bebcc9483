package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskloop/core/internal/domain/entities"
	"github.com/taskloop/core/internal/domain/recurrence"
	"github.com/taskloop/core/internal/infrastructure/logger"
	"github.com/taskloop/core/internal/ports"
)

const dashboardCacheTTL = 2 * time.Minute

// AnalyticsService produces the aggregates behind the team dashboard charts.
type AnalyticsService struct {
	taskRepo ports.TaskRepository
	teamRepo ports.TeamRepository
	cache    ports.CacheRepository
	clock    recurrence.Clock
	logger   *logger.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(taskRepo ports.TaskRepository, teamRepo ports.TeamRepository, cache ports.CacheRepository, clock recurrence.Clock, logger *logger.Logger) *AnalyticsService {
	if clock == nil {
		clock = recurrence.SystemClock{}
	}
	return &AnalyticsService{
		taskRepo: taskRepo,
		teamRepo: teamRepo,
		cache:    cache,
		clock:    clock,
		logger:   logger,
	}
}

// GetDashboard returns the dashboard aggregates for a team, served from
// cache when a recent copy exists.
func (s *AnalyticsService) GetDashboard(ctx context.Context, teamID uuid.UUID) (*ports.DashboardStats, error) {
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		return nil, fmt.Errorf("team not found: %w", err)
	}

	cacheKey := fmt.Sprintf("dashboard:%s", teamID)
	if s.cache != nil {
		var cached ports.DashboardStats
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	byStatus, err := s.taskRepo.CountByStatus(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	byPriority, err := s.taskRepo.CountByPriority(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to count by priority: %w", err)
	}

	byAssignee, err := s.taskRepo.CountByAssignee(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to count by assignee: %w", err)
	}

	now := s.clock.Now()

	var total int64
	for _, n := range byStatus {
		total += n
	}

	// Completed tasks don't count against overdue.
	var overdue int64
	for _, status := range []entities.TaskStatus{entities.TaskStatusPending, entities.TaskStatusInProgress} {
		status := status
		n, err := s.taskRepo.Count(ctx, ports.TaskFilter{
			TeamID:    &teamID,
			Status:    &status,
			DueBefore: &now,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to count overdue tasks: %w", err)
		}
		overdue += n
	}

	var completionRate float64
	if total > 0 {
		completionRate = float64(byStatus[entities.TaskStatusCompleted]) / float64(total) * 100
	}

	stats := &ports.DashboardStats{
		TeamID:         teamID,
		TotalTasks:     total,
		ByStatus:       byStatus,
		ByPriority:     byPriority,
		ByAssignee:     byAssignee,
		OverdueCount:   overdue,
		CompletionRate: completionRate,
		GeneratedAt:    now,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, stats, dashboardCacheTTL); err != nil {
			s.logger.Warnw("Failed to cache dashboard stats", "team_id", teamID, "error", err)
		}
	}

	return stats, nil
}

// InvalidateDashboard drops the cached aggregates for a team.
func (s *AnalyticsService) InvalidateDashboard(ctx context.Context, teamID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, fmt.Sprintf("dashboard:%s", teamID)); err != nil {
		s.logger.Warnw("Failed to invalidate dashboard cache", "team_id", teamID, "error", err)
	}
}
