package main

import (
	"time"

	"go.uber.org/zap"

	"aicoach/internal/comms"
	"aicoach/internal/config"
	"aicoach/internal/mqhandler"
	"aicoach/internal/repository"
	"aicoach/internal/service"
	"aicoach/pkg/db"
	"aicoach/pkg/logger"
	"aicoach/pkg/mq"
	"aicoach/pkg/otel"
	"aicoach/pkg/redis"
	"aicoach/pkg/util"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting worker service...")

	otelShutdown, err := otel.Init(otel.Config{
		ServiceName:    "aicoach-worker",
		ServiceVersion: "1.0.0",
		Endpoint:       cfg.OTel.Endpoint,
		Enabled:        cfg.OTel.Enabled,
	}, log)
	if err != nil {
		log.Warn("OTel init failed, tracing disabled", zap.Error(err))
	} else {
		defer otelShutdown()
	}

	rdb := redis.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	deduper := util.NewDeduperWithLogger(rdb, time.Hour, log)
	retryCounter := util.NewRetryCounter(rdb, time.Hour)

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB connection failed", zap.Error(err))
	}
	defer dbConn.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("MQ publisher init failed", zap.Error(err))
	}
	defer publisher.Close()

	// Dead letter plumbing for exhausted deliveries.
	dlqConn, err := mq.NewConnection(cfg.MQ.URL)
	if err != nil {
		log.Fatal("MQ connection failed", zap.Error(err))
	}
	defer dlqConn.Close()
	dlqCh, err := dlqConn.Channel()
	if err != nil {
		log.Fatal("MQ channel failed", zap.Error(err))
	}
	if err := mq.DeclareDLQExchange(dlqCh); err != nil {
		log.Fatal("DLQ exchange declare failed", zap.Error(err))
	}
	if _, err := mq.DeclareDLQQueue(dlqCh, "notification.failed"); err != nil {
		log.Fatal("DLQ queue declare failed", zap.Error(err))
	}
	dlqCh.Close()

	// repositories
	reminderRepo := repository.NewReminderRepository(dbConn, log)
	notiRepo := repository.NewNotificationRepository(dbConn, log)
	prefRepo := repository.NewPreferenceRepository(dbConn, log)
	actionRepo := repository.NewPendingActionRepository(dbConn, log)

	// services
	router := comms.NewRouter()
	notifier := service.NewNotifier(dbConn, notiRepo, prefRepo, router, log)
	sender := service.NewNotificationSender(dbConn, notiRepo, prefRepo, log)
	agentClient := service.NewAgentClient(cfg.Agent.URL)

	// handlers
	reminderDueHandler := mqhandler.NewReminderDueHandler(reminderRepo, notifier, deduper, log)
	notiCreatedHandler := mqhandler.NewNotificationCreatedHandler(sender, deduper, log)
	notiFailedHandler := mqhandler.NewNotificationFailedHandler(notiRepo, prefRepo, router, sender, deduper, retryCounter, publisher, log)
	agentFailedHandler := mqhandler.NewAgentFailedHandler(actionRepo, notifier, deduper, log)
	outreachHandler := mqhandler.NewOutreachHandler(actionRepo, agentClient, publisher, deduper, log)

	consumers := []struct {
		queue      string
		routingKey string
		handler    mq.MessageHandler
	}{
		{"reminder.due.q", "reminder.due", reminderDueHandler.Handle},
		{"notification.created.q", "notification.created", notiCreatedHandler.Handle},
		{"notification.failed.q", "notification.failed", notiFailedHandler.Handle},
		{"agent.action.failed.q", "agent.action.failed", agentFailedHandler.Handle},
		{"outreach.requested.q", "outreach.requested", outreachHandler.Handle},
	}

	for _, c := range consumers {
		log.Info("Init consumer", zap.String("queue", c.queue))
		consumer, err := mq.NewConsumer(cfg.MQ.URL, c.queue, c.routingKey, log)
		if err != nil {
			log.Fatal("Consumer init failed", zap.String("queue", c.queue), zap.Error(err))
		}
		consumer.SetHandler(c.handler)

		go func(consumer *mq.Consumer, queue string) {
			if err := consumer.StartConsuming(); err != nil {
				log.Fatal("Consumer crashed", zap.String("queue", queue), zap.Error(err))
			}
		}(consumer, c.queue)
		defer consumer.Close()
	}

	log.Info("Worker running")
	select {}
}
