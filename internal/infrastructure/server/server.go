package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/taskloop/core/docs"
	httpHandlers "github.com/taskloop/core/internal/adapters/http"
	"github.com/taskloop/core/internal/adapters/repository"
	"github.com/taskloop/core/internal/application/services"
	"github.com/taskloop/core/internal/domain/entities"
	"github.com/taskloop/core/internal/domain/recurrence"
	"github.com/taskloop/core/internal/infrastructure/config"
	"github.com/taskloop/core/internal/infrastructure/database"
	"github.com/taskloop/core/internal/infrastructure/logger"
)

// Server represents the HTTP server
type Server struct {
	echo    *echo.Echo
	config  *config.Config
	logger  *logger.Logger
	db      *database.DB
	redis   *redis.Client
	sweeper *services.SweepService
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, db *database.DB, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	// Set custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Configure Echo
	e.HideBanner = true
	e.HidePort = true

	// Custom error handler
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Redis backs the dashboard/digest caches and the regeneration locks
	redisClient, err := repository.NewRedisClient(cfg.Redis.GetAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	taskRepo := repository.NewTaskRepository(db.DB)
	teamRepo := repository.NewTeamRepository(db.DB)
	authRepo := repository.NewAuthRepository(db.DB)
	cacheRepo := repository.NewCacheRepository(redisClient)

	clock := recurrence.SystemClock{}

	// Initialize services
	authService := services.NewAuthService(userRepo, authRepo, cfg.JWT, appLogger)
	userService := services.NewUserService(userRepo, appLogger)
	taskService := services.NewTaskService(taskRepo, userRepo, cacheRepo, clock, appLogger)
	captureService := services.NewCaptureService(clock)
	analyticsService := services.NewAnalyticsService(taskRepo, teamRepo, cacheRepo, clock, appLogger)
	digestService := services.NewDigestService(taskRepo, cacheRepo, clock, cfg.Digest.CacheTTL, appLogger)
	mailService := services.NewMailService(cfg.Mail, appLogger)

	// Initialize handlers
	authHandler := httpHandlers.NewAuthHandler(authService, appLogger)
	userHandler := httpHandlers.NewUserHandler(userService, appLogger)
	taskHandler := httpHandlers.NewTaskHandler(taskService, captureService, appLogger)
	insightHandler := httpHandlers.NewInsightHandler(analyticsService, digestService, appLogger)
	mailHandler := httpHandlers.NewMailHandler(mailService, appLogger)

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
		db:     db,
		redis:  redisClient,
	}

	if cfg.Sweep.Enabled {
		server.sweeper = services.NewSweepService(taskService, cfg.Sweep.Schedule, appLogger)
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes(authHandler, userHandler, taskHandler, insightHandler, mailHandler, authService)

	// Setup metrics
	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	return server, nil
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(authHandler *httpHandlers.AuthHandler, userHandler *httpHandlers.UserHandler, taskHandler *httpHandlers.TaskHandler, insightHandler *httpHandlers.InsightHandler, mailHandler *httpHandlers.MailHandler, authService *services.AuthService) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	// Swagger documentation
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")

	// Auth routes (public)
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.RefreshToken)
	authGroup.POST("/logout", authHandler.Logout, s.authMiddleware(authService))

	// User routes (authenticated)
	userGroup := v1.Group("/users", s.authMiddleware(authService))
	userGroup.GET("/me", userHandler.GetCurrentUser)
	userGroup.PUT("/me", userHandler.UpdateCurrentUser)
	userGroup.GET("", userHandler.ListUsers, s.requireRole(entities.UserRoleAdmin))
	userGroup.GET("/:id", userHandler.GetUser, s.requireRole(entities.UserRoleAdmin))

	// Task routes (authenticated)
	taskGroup := v1.Group("/tasks", s.authMiddleware(authService))
	taskGroup.GET("", taskHandler.ListTasks)
	taskGroup.POST("", taskHandler.CreateTask)
	taskGroup.POST("/preview", taskHandler.PreviewNextOccurrence)
	taskGroup.POST("/capture", taskHandler.CaptureTask)
	taskGroup.GET("/overdue", taskHandler.GetOverdueTasks)
	taskGroup.GET("/:id", taskHandler.GetTask)
	taskGroup.PUT("/:id", taskHandler.UpdateTask)
	taskGroup.DELETE("/:id", taskHandler.DeleteTask)
	taskGroup.POST("/:id/complete", taskHandler.CompleteTask)

	// Analytics routes (authenticated, premium)
	analyticsGroup := v1.Group("/analytics", s.authMiddleware(authService))
	analyticsGroup.GET("/dashboard", insightHandler.GetDashboard, s.requirePlan(entities.PlanPremium))

	// Digest route (authenticated, premium)
	v1.GET("/digest", insightHandler.GetDigest, s.authMiddleware(authService), s.requirePlan(entities.PlanPremium))

	// Mail relay (authenticated)
	v1.POST("/mail/send", mailHandler.SendMail, s.authMiddleware(authService))
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)

	// Custom metrics middleware
	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	// Metrics endpoint
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	if err := s.db.HealthCheck(); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "ok",
			"stats":  s.db.GetConnectionInfo(),
		}
	}

	if err := s.redis.Ping(c.Request().Context()).Err(); err != nil {
		status = "error"
		checks["redis"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["redis"] = map[string]interface{}{"status": "ok"}
	}

	response := map[string]interface{}{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
		"checks": checks,
		"version": map[string]string{
			"app": s.config.App.Version,
			"go":  "1.21",
		},
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.db.Ping(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server and, if enabled, the recurring-task sweep.
func (s *Server) Start(address string) error {
	if s.sweeper != nil {
		if err := s.sweeper.Start(); err != nil {
			return err
		}
	}

	s.logger.Info("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	if s.sweeper != nil {
		if err := s.sweeper.Stop(ctx); err != nil {
			s.logger.Error("Sweep shutdown failed", "error", err)
		}
	}

	if err := s.redis.Close(); err != nil {
		s.logger.Error("Redis close failed", "error", err)
	}

	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			msg = he.Message
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else if e, ok := err.(*validator.ValidationErrors); ok {
			code = http.StatusBadRequest
			msg = map[string]string{"message": "validation failed", "details": e.Error()}
		} else {
			msg = map[string]string{"message": http.StatusText(code)}
		}

		if code == http.StatusInternalServerError {
			logger.Error("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		// Send response
		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				logger.Error("Error sending response", "error", err)
			}
		}
	}
}
