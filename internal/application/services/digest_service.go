package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskloop/core/internal/domain/entities"
	"github.com/taskloop/core/internal/domain/recurrence"
	"github.com/taskloop/core/internal/infrastructure/logger"
	"github.com/taskloop/core/internal/ports"
)

// DigestService produces a short text summary of a user's task list. The
// summarizer is deterministic template text, not a model call; it exists so
// the digest surface has a stable, testable shape.
type DigestService struct {
	taskRepo ports.TaskRepository
	cache    ports.CacheRepository
	clock    recurrence.Clock
	cacheTTL time.Duration
	logger   *logger.Logger
}

// NewDigestService creates a new digest service
func NewDigestService(taskRepo ports.TaskRepository, cache ports.CacheRepository, clock recurrence.Clock, cacheTTL time.Duration, logger *logger.Logger) *DigestService {
	if clock == nil {
		clock = recurrence.SystemClock{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &DigestService{
		taskRepo: taskRepo,
		cache:    cache,
		clock:    clock,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// GetDigest builds the digest for a user's assigned tasks.
func (s *DigestService) GetDigest(ctx context.Context, userID uuid.UUID) (*ports.Digest, error) {
	cacheKey := fmt.Sprintf("digest:%s", userID)
	if s.cache != nil {
		var cached ports.Digest
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	tasks, err := s.taskRepo.List(ctx, ports.TaskFilter{
		AssigneeID: &userID,
		Limit:      200,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	now := s.clock.Now()
	digest := buildDigest(userID, tasks, now)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, digest, s.cacheTTL); err != nil {
			s.logger.Warnw("Failed to cache digest", "user_id", userID, "error", err)
		}
	}

	return digest, nil
}

func buildDigest(userID uuid.UUID, tasks []*entities.Task, now time.Time) *ports.Digest {
	var open, dueToday int
	var overdueTasks []*entities.Task

	year, month, day := now.Date()
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	for _, t := range tasks {
		if t.IsCompleted() {
			continue
		}
		open++

		if t.DueDate == nil {
			continue
		}
		switch {
		case t.DueDate.Before(now):
			overdueTasks = append(overdueTasks, t)
		case !t.DueDate.Before(dayStart) && t.DueDate.Before(dayEnd):
			dueToday++
		}
	}

	// Longest-overdue first, so the highlights match their label.
	sort.SliceStable(overdueTasks, func(i, j int) bool {
		return overdueTasks[i].DueDate.Before(*overdueTasks[j].DueDate)
	})

	overdue := len(overdueTasks)
	var highlights []string
	for _, t := range overdueTasks {
		if len(highlights) == 3 {
			break
		}
		highlights = append(highlights, t.Title)
	}

	var b strings.Builder
	switch {
	case open == 0:
		b.WriteString("All clear: no open tasks.")
	case overdue > 0:
		fmt.Fprintf(&b, "You have %d open tasks, %d overdue.", open, overdue)
		if len(highlights) > 0 {
			fmt.Fprintf(&b, " Oldest first: %s.", strings.Join(highlights, ", "))
		}
	case dueToday > 0:
		fmt.Fprintf(&b, "You have %d open tasks, %d due today.", open, dueToday)
	default:
		fmt.Fprintf(&b, "You have %d open tasks, nothing due today.", open)
	}

	return &ports.Digest{
		UserID:      userID,
		Summary:     b.String(),
		OpenCount:   open,
		DueToday:    dueToday,
		Overdue:     overdue,
		GeneratedAt: now,
	}
}
