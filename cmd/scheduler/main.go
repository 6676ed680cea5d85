package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aicoach/internal/comms"
	"aicoach/internal/config"
	"aicoach/internal/repository"
	"aicoach/internal/scheduler"
	"aicoach/internal/service"
	"aicoach/pkg/db"
	"aicoach/pkg/logger"
	"aicoach/pkg/mq"
	"aicoach/pkg/otel"
	"aicoach/pkg/outbox"
	"aicoach/pkg/redis"
	"aicoach/pkg/util"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting scheduler service...",
		zap.String("db_host", cfg.DB.Host),
		zap.String("mq_url", cfg.MQ.URL),
	)

	otelShutdown, err := otel.Init(otel.Config{
		ServiceName:    "aicoach-scheduler",
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

	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Dedup locks live for a day so a restart cannot double-schedule.
	deduper := util.NewDeduperWithLogger(rdb, 24*time.Hour, log)

	habitRepo := repository.NewHabitRepository(dbConn, log)
	reminderRepo := repository.NewReminderRepository(dbConn, log)
	prefRepo := repository.NewPreferenceRepository(dbConn, log)
	notiRepo := repository.NewNotificationRepository(dbConn, log)
	actionRepo := repository.NewPendingActionRepository(dbConn, log)

	reminderScheduler := scheduler.NewReminderScheduler(dbConn, habitRepo, reminderRepo, prefRepo, deduper, log)
	outreachDrainer := scheduler.NewOutreachDrainer(actionRepo, publisher, cfg.Scheduler.OutreachBatchSize, log)
	notifier := service.NewNotifier(dbConn, notiRepo, prefRepo, comms.NewRouter(), log)

	// Outbox dispatcher pushes committed events onto the bus.
	outboxRepo := outbox.NewRepository(dbConn)
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log)
	go dispatcher.Start(context.Background())

	scanInterval := time.Duration(cfg.Scheduler.ScanIntervalSeconds) * time.Second
	log.Info("Starting scheduling loops", zap.Duration("interval", scanInterval))

	loopCtx, loopCancel := context.WithCancel(context.Background())
	defer loopCancel()

	go func() {
		ticker := time.NewTicker(scanInterval)
		defer ticker.Stop()

		// Run immediately on startup
		runPass(loopCtx, log, reminderScheduler, outreachDrainer, notifier, cfg.Scheduler.DeferredReleaseBatch)

		for {
			select {
			case <-loopCtx.Done():
				log.Info("Scheduling loop stopped")
				return
			case <-ticker.C:
				runPass(loopCtx, log, reminderScheduler, outreachDrainer, notifier, cfg.Scheduler.DeferredReleaseBatch)
			}
		}
	}()

	// HTTP server for health checks
	gin.SetMode(gin.ReleaseMode)
	health := gin.New()
	health.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	health.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()
		if err := dbConn.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready"})
			return
		}
		if !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: health,
	}
	go func() {
		log.Info("Health server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Health server failed", zap.Error(err))
		}
	}()

	log.Info("scheduler service is fully initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler service gracefully...")
	loopCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Health server shutdown error", zap.Error(err))
	}

	log.Info("scheduler service shutdown complete")
}

// runPass executes one tick of every scheduling concern. Failures are logged
// and retried on the next tick.
func runPass(
	ctx context.Context,
	log *zap.Logger,
	reminders *scheduler.ReminderScheduler,
	outreach *scheduler.OutreachDrainer,
	notifier *service.Notifier,
	deferredBatch int,
) {
	if err := reminders.Scan(ctx); err != nil {
		log.Error("Reminder scan failed", zap.Error(err))
	}
	if err := outreach.Drain(ctx); err != nil {
		log.Error("Outreach drain failed", zap.Error(err))
	}
	if err := notifier.ReleaseDeferred(ctx, deferredBatch); err != nil {
		log.Error("Deferred release failed", zap.Error(err))
	}
}
