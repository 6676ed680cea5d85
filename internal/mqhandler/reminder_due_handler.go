package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	mqcontracts "aicoach/contracts/mq"
	"aicoach/internal/agenterr"
	"aicoach/internal/comms"
	"aicoach/internal/model"
	"aicoach/internal/repository"
	"aicoach/internal/service"
	"aicoach/pkg/logger"
	"aicoach/pkg/util"
)

// ReminderDueHandler turns a due reminder into a routed notification.
type ReminderDueHandler struct {
	reminderRepo *repository.ReminderRepository
	notifier     *service.Notifier
	deduper      *util.Deduper
	logger       *zap.Logger
}

func NewReminderDueHandler(
	reminderRepo *repository.ReminderRepository,
	notifier *service.Notifier,
	deduper *util.Deduper,
	log *zap.Logger,
) *ReminderDueHandler {
	return &ReminderDueHandler{
		reminderRepo: reminderRepo,
		notifier:     notifier,
		deduper:      deduper,
		logger:       log,
	}
}

func (h *ReminderDueHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.ReminderDuePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		// Malformed payload, not retryable: ack it away.
		h.logger.Error("Failed to unmarshal reminder.due payload (non-retryable)",
			zap.Error(err),
		)
		return nil
	}

	log := logger.WithTrace(ctx, h.logger)

	if !h.deduper.AcquireOnce(ctx, "reminder_due", fmt.Sprintf("%d", p.ReminderID)) {
		log.Info("Duplicate reminder.due event skipped",
			zap.Int("reminder_id", p.ReminderID),
		)
		return nil
	}

	log.Info("Processing due reminder",
		zap.Int("reminder_id", p.ReminderID),
		zap.Int("habit_id", p.HabitID),
		zap.Int("user_id", p.UserID),
	)

	content := fmt.Sprintf("Time for your habit: %s", p.Title)
	noti, err := h.notifier.Notify(ctx, p.UserID, comms.TypeReminder, comms.UrgencyNormal, content)
	if err != nil {
		isRetryable, errType := agenterr.ClassifyError(err)
		log.Error("Failed to enqueue reminder notification",
			zap.Int("reminder_id", p.ReminderID),
			zap.String("error_type", errType),
			zap.Bool("retryable", isRetryable),
			zap.Error(err),
		)
		if !isRetryable {
			return nil
		}
		return err
	}

	switch noti.Status {
	case model.NotificationStatusUndeliverable:
		if err := h.reminderRepo.MarkFailed(ctx, p.ReminderID); err != nil {
			return err
		}
	default:
		if err := h.reminderRepo.MarkSent(ctx, p.ReminderID, noti.Channel); err != nil {
			return err
		}
	}

	log.Info("Reminder notification enqueued",
		zap.Int("reminder_id", p.ReminderID),
		zap.Int("notification_id", noti.ID),
		zap.String("channel", noti.Channel),
	)
	return nil
}
