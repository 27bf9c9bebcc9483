package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskloop/core/internal/application/services"
	"github.com/taskloop/core/internal/infrastructure/logger"
	"github.com/taskloop/core/internal/ports"
)

// MailHandler relays outbound email through the configured provider so the
// provider key never reaches a browser.
type MailHandler struct {
	mailService *services.MailService
	logger      *logger.Logger
}

// NewMailHandler creates a new mail handler
func NewMailHandler(mailService *services.MailService, logger *logger.Logger) *MailHandler {
	return &MailHandler{
		mailService: mailService,
		logger:      logger,
	}
}

// SendMail handles outbound email requests
func (h *MailHandler) SendMail(c echo.Context) error {
	var req ports.SendMailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.mailService.Send(c.Request().Context(), req); err != nil {
		h.logger.Error("Send mail failed", "error", err, "to", req.To)
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to send email")
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Email sent"})
}
