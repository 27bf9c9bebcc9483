package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskloop/core/internal/application/services"
	"github.com/taskloop/core/internal/infrastructure/logger"
)

// InsightHandler serves the team dashboard and the personal digest.
type InsightHandler struct {
	analyticsService *services.AnalyticsService
	digestService    *services.DigestService
	logger           *logger.Logger
}

// NewInsightHandler creates a new insight handler
func NewInsightHandler(analyticsService *services.AnalyticsService, digestService *services.DigestService, logger *logger.Logger) *InsightHandler {
	return &InsightHandler{
		analyticsService: analyticsService,
		digestService:    digestService,
		logger:           logger,
	}
}

// GetDashboard returns aggregate task stats for a team. Premium-gated at the
// route level; the service re-checks team membership.
// @Summary Team dashboard stats
// @Tags analytics
// @Produce json
// @Param team_id query string true "Team ID"
// @Success 200 {object} ports.DashboardStats
// @Router /analytics/dashboard [get]
func (h *InsightHandler) GetDashboard(c echo.Context) error {
	teamID, err := uuid.Parse(c.QueryParam("team_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid team_id parameter")
	}

	stats, err := h.analyticsService.GetDashboard(c.Request().Context(), teamID)
	if err != nil {
		h.logger.Error("Get dashboard failed", "error", err, "team_id", teamID)
		return echo.NewHTTPError(statusFromError(err), err.Error())
	}

	return c.JSON(http.StatusOK, stats)
}

// GetDigest returns the generated summary of the caller's open tasks.
func (h *InsightHandler) GetDigest(c echo.Context) error {
	userID := getUserIDFromContext(c)

	digest, err := h.digestService.GetDigest(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("Get digest failed", "error", err, "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate digest")
	}

	return c.JSON(http.StatusOK, digest)
}
