package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/taskloop/core/internal/application/services"
	"github.com/taskloop/core/internal/domain/entities"
)

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Logger middleware
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	// CORS middleware
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	// Rate limiting middleware
	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{Rate: rate.Limit(s.config.Security.RateLimitRequests), Burst: s.config.Security.RateLimitRequests, ExpiresIn: s.config.Security.RateLimitWindow},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
		},
	}))

	// Security headers
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	// Request ID middleware
	s.echo.Use(middleware.RequestID())

	// Timeout middleware
	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
}

// authMiddleware validates JWT tokens
func (s *Server) authMiddleware(authService *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := authService.ValidateToken(tokenString)
			if err != nil {
				s.logger.LogSecurityEvent("invalid_token", "", c.RealIP(), map[string]interface{}{
					"error": err.Error(),
				})
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			// Set user claims in context
			c.Set("user", claims.UserID)
			c.Set("user_role", claims.Role)
			c.Set("user_plan", claims.Plan)
			c.Set("user_email", claims.Email)

			return next(c)
		}
	}
}

// requireRole checks if user has required role
func (s *Server) requireRole(roles ...entities.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRole, ok := c.Get("user_role").(entities.UserRole)
			if !ok {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get user role from context")
			}

			for _, requiredRole := range roles {
				if userRole == requiredRole {
					return next(c)
				}
			}

			userID, _ := c.Get("user").(string)
			s.logger.LogSecurityEvent("insufficient_permissions",
				userID,
				c.RealIP(),
				map[string]interface{}{
					"required_roles": roles,
					"user_role":      userRole,
					"endpoint":       c.Request().URL.Path,
				})

			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
	}
}

// requirePlan gates a route behind a subscription plan
func (s *Server) requirePlan(plans ...entities.Plan) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userPlan, ok := c.Get("user_plan").(entities.Plan)
			if !ok {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get user plan from context")
			}

			for _, requiredPlan := range plans {
				if userPlan == requiredPlan {
					return next(c)
				}
			}

			return echo.NewHTTPError(http.StatusPaymentRequired, "Premium plan required")
		}
	}
}
