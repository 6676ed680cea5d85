package httpserver

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"aicoach/internal/handler"
	"aicoach/pkg/metrics"
	"aicoach/pkg/rbac"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth       *handler.AuthHandler
	Habit      *handler.HabitHandler
	Preference *handler.PreferenceHandler
	Reminder   *handler.ReminderHandler
	AgentError *handler.AgentErrorHandler
	Admin      *handler.AdminHandler
}

func NewRouter(h Handlers, logger *zap.Logger, db *pgxpool.Pool, jwtSecret string) *gin.Engine {
	r := gin.Default()

	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		latency := time.Since(start)
		metrics.RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), latency)
		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/register", h.Auth.Register)
	r.POST("/login", h.Auth.Login)

	authed := r.Group("/")
	authed.Use(AuthMiddleware(jwtSecret))
	{
		authed.POST("/habits", RequirePermission(rbac.PermissionCreateHabit), h.Habit.CreateHabit)
		authed.GET("/habits", h.Habit.ListHabits)
		authed.PUT("/habits/:id", RequirePermission(rbac.PermissionUpdateHabit), h.Habit.UpdateHabit)
		authed.DELETE("/habits/:id", RequirePermission(rbac.PermissionDeleteHabit), h.Habit.DeleteHabit)

		authed.GET("/reminders", RequirePermission(rbac.PermissionReadReminder), h.Reminder.ListReminders)

		authed.GET("/preferences", h.Preference.GetPreferences)
		authed.PUT("/preferences", RequirePermission(rbac.PermissionUpdatePreference), h.Preference.UpdatePreferences)

		authed.POST("/agent/errors", RequirePermission(rbac.PermissionReportAgentError), h.AgentError.ReportError)
		authed.GET("/agent/errors/codes", h.AgentError.ListErrorCodes)
	}

	admin := r.Group("/admin")
	admin.Use(AuthMiddleware(jwtSecret))
	{
		admin.GET("/pending-actions", RequirePermission(rbac.PermissionManagePendingActions), h.Admin.ListPendingActions)
		admin.POST("/pending-actions/:id/retry", RequirePermission(rbac.PermissionManagePendingActions), h.Admin.RetryPendingAction)
		admin.GET("/outbox/failed", RequirePermission(rbac.PermissionReplayOutbox), h.Admin.ListFailedOutboxEvents)
		admin.POST("/outbox/:id/replay", RequirePermission(rbac.PermissionReplayOutbox), h.Admin.ReplayOutboxEvent)
		admin.POST("/outbox/replay-failed", RequirePermission(rbac.PermissionReplayOutbox), h.Admin.ReplayFailedOutboxEvents)
	}

	return r
}
