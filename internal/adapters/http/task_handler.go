package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskloop/core/internal/application/services"
	"github.com/taskloop/core/internal/domain/entities"
	"github.com/taskloop/core/internal/infrastructure/logger"
	"github.com/taskloop/core/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService    *services.TaskService
	captureService *services.CaptureService
	logger         *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService, captureService *services.CaptureService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService:    taskService,
		captureService: captureService,
		logger:         logger,
	}
}

// CreateTask handles task creation
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body ports.CreateTaskRequest true "Task fields"
// @Success 201 {object} entities.Task
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), getUserIDFromContext(c), req)
	if err != nil {
		h.logger.Error("Create task failed", "error", err)
		return echo.NewHTTPError(statusFromError(err), err.Error())
	}

	return c.JSON(http.StatusCreated, task)
}

// GetTask handles getting a task by ID
func (h *TaskHandler) GetTask(c echo.Context) error {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	task, err := h.taskService.GetTask(c.Request().Context(), taskID)
	if err != nil {
		return echo.NewHTTPError(statusFromError(err), "Task not found")
	}

	return c.JSON(http.StatusOK, task)
}

// UpdateTask handles task updates
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), taskID, req)
	if err != nil {
		h.logger.Error("Update task failed", "error", err, "task_id", taskID)
		return echo.NewHTTPError(statusFromError(err), err.Error())
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask handles task deletion
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), taskID); err != nil {
		h.logger.Error("Delete task failed", "error", err, "task_id", taskID)
		return echo.NewHTTPError(statusFromError(err), err.Error())
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Task deleted"})
}

// CompleteTask marks a task completed. For recurring tasks the response also
// carries the regenerated occurrence when its due date has already passed.
// @Summary Complete a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} ports.CompleteTaskResponse
// @Router /tasks/{id}/complete [post]
func (h *TaskHandler) CompleteTask(c echo.Context) error {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	response, err := h.taskService.CompleteTask(c.Request().Context(), taskID)
	if err != nil {
		h.logger.Error("Complete task failed", "error", err, "task_id", taskID)
		return echo.NewHTTPError(statusFromError(err), err.Error())
	}

	return c.JSON(http.StatusOK, response)
}

// ListTasks handles listing tasks with filters
func (h *TaskHandler) ListTasks(c echo.Context) error {
	filter := ports.TaskFilter{}

	if statusStr := c.QueryParam("status"); statusStr != "" {
		status := entities.TaskStatus(statusStr)
		if !status.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid status parameter")
		}
		filter.Status = &status
	}

	if priorityStr := c.QueryParam("priority"); priorityStr != "" {
		priority := entities.Priority(priorityStr)
		if !priority.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid priority parameter")
		}
		filter.Priority = &priority
	}

	if assigneeStr := c.QueryParam("assignee_id"); assigneeStr != "" {
		assigneeID, err := uuid.Parse(assigneeStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid assignee_id parameter")
		}
		filter.AssigneeID = &assigneeID
	}

	if teamStr := c.QueryParam("team_id"); teamStr != "" {
		teamID, err := uuid.Parse(teamStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid team_id parameter")
		}
		filter.TeamID = &teamID
	}

	if recurringStr := c.QueryParam("recurring"); recurringStr != "" {
		recurring, err := strconv.ParseBool(recurringStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid recurring parameter")
		}
		filter.Recurring = &recurring
	}

	if tags := c.QueryParam("tags"); tags != "" {
		filter.Tags = strings.Split(tags, ",")
	}

	if search := c.QueryParam("search"); search != "" {
		filter.Search = &search
	}

	filter.SortBy = c.QueryParam("sort_by")
	filter.SortOrder = c.QueryParam("sort_order")

	limit, offset, err := parsePagination(c)
	if err != nil {
		return err
	}
	filter.Limit = limit
	filter.Offset = offset

	tasks, total, err := h.taskService.ListTasks(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("List tasks failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve tasks")
	}

	return c.JSON(http.StatusOK, ports.PaginatedResponse[*entities.Task]{
		Data:   tasks,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// PreviewNextOccurrence computes the next occurrence for a recurrence rule
// without saving anything. Backs the live preview on the task form.
// @Summary Preview the next occurrence of a recurrence rule
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body ports.PreviewRequest true "Recurrence rule"
// @Success 200 {object} ports.PreviewResponse
// @Router /tasks/preview [post]
func (h *TaskHandler) PreviewNextOccurrence(c echo.Context) error {
	var req ports.PreviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, h.taskService.PreviewNextOccurrence(req))
}

// CaptureTask parses a voice transcript into a draft task and creates it.
func (h *TaskHandler) CaptureTask(c echo.Context) error {
	var req ports.CaptureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	draft := h.captureService.Parse(req)
	task, err := h.taskService.CreateTask(c.Request().Context(), getUserIDFromContext(c), draft)
	if err != nil {
		h.logger.Error("Capture task failed", "error", err)
		return echo.NewHTTPError(statusFromError(err), err.Error())
	}

	return c.JSON(http.StatusCreated, task)
}

// GetOverdueTasks lists tasks past their due date
func (h *TaskHandler) GetOverdueTasks(c echo.Context) error {
	tasks, err := h.taskService.GetOverdueTasks(c.Request().Context())
	if err != nil {
		h.logger.Error("Get overdue tasks failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve overdue tasks")
	}

	return c.JSON(http.StatusOK, tasks)
}
