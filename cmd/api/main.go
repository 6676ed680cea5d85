package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"aicoach/internal/config"
	"aicoach/internal/handler"
	"aicoach/internal/httpserver"
	"aicoach/internal/repository"
	"aicoach/internal/service"
	"aicoach/pkg/db"
	"aicoach/pkg/logger"
	"aicoach/pkg/mq"
	"aicoach/pkg/otel"
	"aicoach/pkg/outbox"
	"aicoach/pkg/rbac"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting api service...",
		zap.String("db_host", cfg.DB.Host),
		zap.String("port", cfg.Server.Port),
	)

	otelShutdown, err := otel.Init(otel.Config{
		ServiceName:    "aicoach-api",
		ServiceVersion: "1.0.0",
		Endpoint:       cfg.OTel.Endpoint,
		Enabled:        cfg.OTel.Enabled,
	}, log)
	if err != nil {
		log.Warn("OTel init failed, tracing disabled", zap.Error(err))
	} else {
		defer otelShutdown()
	}

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Repositories
	userRepo := repository.NewUserRepository(dbConn)
	habitRepo := repository.NewHabitRepository(dbConn, log)
	reminderRepo := repository.NewReminderRepository(dbConn, log)
	prefRepo := repository.NewPreferenceRepository(dbConn, log)
	actionRepo := repository.NewPendingActionRepository(dbConn, log)
	outboxRepo := outbox.NewRepository(dbConn)

	// RBAC role lookup goes through the user repository.
	rbac.RoleResolver = func(userID int) string {
		return userRepo.GetRole(context.Background(), userID)
	}

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret)
	replayService := outbox.NewReplayService(outboxRepo, publisher)

	handlers := httpserver.Handlers{
		Auth:       handler.NewAuthHandler(authService, log),
		Habit:      handler.NewHabitHandler(habitRepo, log),
		Preference: handler.NewPreferenceHandler(prefRepo, log),
		Reminder:   handler.NewReminderHandler(reminderRepo, log),
		AgentError: handler.NewAgentErrorHandler(dbConn, actionRepo, outboxRepo, log),
		Admin:      handler.NewAdminHandler(actionRepo, outboxRepo, replayService, log),
	}

	router := httpserver.NewRouter(handlers, log, dbConn, cfg.JWT.Secret)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("api service is fully initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down api service gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("api service shutdown complete")
}
