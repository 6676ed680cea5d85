package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	mqcontracts "aicoach/contracts/mq"
	"aicoach/internal/agenterr"
	"aicoach/internal/service"
	"aicoach/pkg/logger"
	"aicoach/pkg/util"
)

// NotificationCreatedHandler performs the actual channel delivery.
type NotificationCreatedHandler struct {
	sender  *service.NotificationSender
	deduper *util.Deduper
	logger  *zap.Logger
}

func NewNotificationCreatedHandler(
	sender *service.NotificationSender,
	deduper *util.Deduper,
	log *zap.Logger,
) *NotificationCreatedHandler {
	return &NotificationCreatedHandler{
		sender:  sender,
		deduper: deduper,
		logger:  log,
	}
}

func (h *NotificationCreatedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.NotificationCreatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal notification.created payload (non-retryable)",
			zap.Error(err),
		)
		return nil
	}

	log := logger.WithTrace(ctx, h.logger)

	if !h.deduper.AcquireOnce(ctx, "notification_created", fmt.Sprintf("%d", p.NotificationID)) {
		log.Info("Duplicate notification.created event skipped",
			zap.Int("notification_id", p.NotificationID),
		)
		return nil
	}

	err := h.sender.SendNotification(ctx, p.NotificationID, p.UserID, p.Channel, p.Message)
	if err != nil {
		// The sender already wrote notification.failed to the outbox;
		// fallback is handled by that event's consumer. Ack here.
		log.Warn("Notification delivery failed, fallback delegated",
			zap.Int("notification_id", p.NotificationID),
			zap.String("channel", p.Channel),
			zap.Error(err),
		)
		if isRetryable, _ := agenterr.ClassifyError(err); isRetryable {
			// Transient infrastructure errors (DB down) still nack.
			return err
		}
		return nil
	}

	return nil
}
