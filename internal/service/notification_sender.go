package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	mqcontracts "aicoach/contracts/mq"
	"aicoach/internal/comms"
	"aicoach/internal/model"
	"aicoach/internal/repository"
	"aicoach/pkg/metrics"
	"aicoach/pkg/outbox"
)

// NotificationSender delivers a notification on its assigned channel and
// records the outcome through the outbox.
type NotificationSender struct {
	db         *pgxpool.Pool
	repo       *repository.NotificationRepository
	prefRepo   *repository.PreferenceRepository
	outboxRepo *outbox.Repository
	clients    map[string]DeliveryClient
	logger     *zap.Logger
}

func NewNotificationSender(
	db *pgxpool.Pool,
	repo *repository.NotificationRepository,
	prefRepo *repository.PreferenceRepository,
	logger *zap.Logger,
) *NotificationSender {
	return &NotificationSender{
		db:         db,
		repo:       repo,
		prefRepo:   prefRepo,
		outboxRepo: outbox.NewRepository(db),
		clients: map[string]DeliveryClient{
			comms.ChannelPush:  &StubPushClient{Logger: logger},
			comms.ChannelSMS:   &StubSMSClient{Logger: logger},
			comms.ChannelVoice: &StubVoiceClient{Logger: logger},
			comms.ChannelEmail: &StubEmailClient{Logger: logger},
		},
		logger: logger,
	}
}

// WithClient overrides a channel client, for tests.
func (s *NotificationSender) WithClient(channel string, client DeliveryClient) *NotificationSender {
	s.clients[channel] = client
	return s
}

// SendNotification sends a notification via the specified channel.
func (s *NotificationSender) SendNotification(ctx context.Context, notificationID, userID int, channel, message string) error {
	s.logger.Info("Sending notification",
		zap.Int("notification_id", notificationID),
		zap.Int("user_id", userID),
		zap.String("channel", channel),
	)

	contact, err := s.prefRepo.GetContactInfo(ctx, userID)
	if err != nil {
		return err
	}

	client, ok := s.clients[channel]
	var sendErr error
	if !ok {
		sendErr = fmt.Errorf("unsupported channel: %s", channel)
	} else {
		sendErr = client.Send(ctx, contact, message)
	}

	// The outcome event rides the same transaction as the status update.
	tx, txErr := s.db.Begin(ctx)
	if txErr != nil {
		s.logger.Error("Failed to begin transaction", zap.Error(txErr))
		return txErr
	}
	defer tx.Rollback(ctx)

	notiID64 := int64(notificationID)

	if sendErr != nil {
		s.logger.Error("Failed to send notification",
			zap.Int("notification_id", notificationID),
			zap.String("channel", channel),
			zap.Error(sendErr),
		)
		metrics.IncrementDeliveryAttempt(channel, "failed")

		payload := mqcontracts.NotificationFailedPayload{
			NotificationID: notificationID,
			UserID:         userID,
			Channel:        channel,
			Error:          sendErr.Error(),
			RetryCount:     0,
		}
		if pubErr := outbox.InsertEventInTx(ctx, tx, s.outboxRepo, "notification", &notiID64, "notification.failed", payload); pubErr != nil {
			s.logger.Error("Failed to insert notification.failed to outbox", zap.Error(pubErr))
			return pubErr
		}

		if commitErr := tx.Commit(ctx); commitErr != nil {
			s.logger.Error("Failed to commit transaction", zap.Error(commitErr))
			return commitErr
		}
		return sendErr
	}

	metrics.IncrementDeliveryAttempt(channel, "sent")

	payload := mqcontracts.NotificationSentPayload{
		NotificationID: notificationID,
		UserID:         userID,
		Channel:        channel,
		SentAt:         time.Now(),
	}
	if err := outbox.InsertEventInTx(ctx, tx, s.outboxRepo, "notification", &notiID64, "notification.sent", payload); err != nil {
		s.logger.Error("Failed to insert notification.sent to outbox", zap.Error(err))
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error("Failed to commit transaction", zap.Error(err))
		return err
	}

	if err := s.repo.UpdateStatus(ctx, notificationID, model.NotificationStatusSent, channel); err != nil {
		return err
	}

	s.logger.Info("Notification sent successfully",
		zap.Int("notification_id", notificationID),
		zap.String("channel", channel),
	)
	return nil
}
