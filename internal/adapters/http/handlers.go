package http

import (
	"errors"
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

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	authService *services.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(c echo.Context) error {
	var req ports.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Registration failed", "error", err, "email", req.Email)
		if strings.Contains(err.Error(), "already exists") {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, response)
}

// Login handles user login
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Login failed", "error", err, "email", req.Email)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	return c.JSON(http.StatusOK, response)
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	response, err := h.authService.RefreshToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		h.logger.Error("Token refresh failed", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	}

	return c.JSON(http.StatusOK, response)
}

// Logout handles user logout
func (h *AuthHandler) Logout(c echo.Context) error {
	userID := getUserIDFromContext(c)

	if err := h.authService.Logout(c.Request().Context(), userID); err != nil {
		h.logger.Error("Logout failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Logout failed")
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Logged out successfully"})
}

// UserHandler handles user-related requests
type UserHandler struct {
	userService *services.UserService
	logger      *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// GetCurrentUser handles getting current user info
func (h *UserHandler) GetCurrentUser(c echo.Context) error {
	userID := getUserIDFromContext(c)

	user, err := h.userService.GetUser(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("Get current user failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateCurrentUser handles updating current user
func (h *UserHandler) UpdateCurrentUser(c echo.Context) error {
	userID := getUserIDFromContext(c)

	var req ports.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userService.UpdateUser(c.Request().Context(), userID, req)
	if err != nil {
		h.logger.Error("Update user failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, user)
}

// GetUser handles getting user by ID
func (h *UserHandler) GetUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	user, err := h.userService.GetUser(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("Get user failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	return c.JSON(http.StatusOK, user)
}

// ListUsers handles listing users
func (h *UserHandler) ListUsers(c echo.Context) error {
	filter := ports.UserFilter{}

	if role := c.QueryParam("role"); role != "" {
		userRole := entities.UserRole(role)
		if !userRole.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid role parameter")
		}
		filter.Role = &userRole
	}

	if teamIDStr := c.QueryParam("team_id"); teamIDStr != "" {
		teamID, err := uuid.Parse(teamIDStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid team_id parameter")
		}
		filter.TeamID = &teamID
	}

	limit, offset, err := parsePagination(c)
	if err != nil {
		return err
	}
	filter.Limit = limit
	filter.Offset = offset

	users, total, err := h.userService.ListUsers(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("List users failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve users")
	}

	return c.JSON(http.StatusOK, ports.PaginatedResponse[*entities.User]{
		Data:   users,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// Utility functions and helper types

func getUserIDFromContext(c echo.Context) uuid.UUID {
	user := c.Get("user")
	if user == nil {
		return uuid.Nil
	}

	if userStr, ok := user.(string); ok {
		userID, _ := uuid.Parse(userStr)
		return userID
	}

	return uuid.Nil
}

func parsePagination(c echo.Context) (limit, offset int, err error) {
	limit = 20
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid limit parameter")
		}
	}

	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid offset parameter")
		}
	}

	return limit, offset, nil
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, entities.ErrTaskNotFound),
		errors.Is(err, entities.ErrUserNotFound),
		errors.Is(err, entities.ErrTeamNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, entities.ErrPremiumRequired):
		return http.StatusPaymentRequired
	case errors.Is(err, entities.ErrTaskAlreadyCompleted),
		errors.Is(err, entities.ErrSuccessorExists):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// Request/Response types
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}
