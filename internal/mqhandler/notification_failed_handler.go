package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	mqcontracts "aicoach/contracts/mq"
	"aicoach/internal/comms"
	"aicoach/internal/model"
	"aicoach/internal/repository"
	"aicoach/internal/service"
	"aicoach/pkg/logger"
	"aicoach/pkg/metrics"
	"aicoach/pkg/mq"
	"aicoach/pkg/util"
)

// maxFallbackHops bounds how many channels a single notification may walk.
const maxFallbackHops = 3

// NotificationFailedHandler retries a failed delivery on the next channel
// in the fallback chain.
type NotificationFailedHandler struct {
	notiRepo     *repository.NotificationRepository
	prefRepo     *repository.PreferenceRepository
	router       *comms.Router
	sender       *service.NotificationSender
	deduper      *util.Deduper
	retryCounter *util.RetryCounter
	publisher    *mq.Publisher
	logger       *zap.Logger
}

func NewNotificationFailedHandler(
	notiRepo *repository.NotificationRepository,
	prefRepo *repository.PreferenceRepository,
	router *comms.Router,
	sender *service.NotificationSender,
	deduper *util.Deduper,
	retryCounter *util.RetryCounter,
	publisher *mq.Publisher,
	log *zap.Logger,
) *NotificationFailedHandler {
	return &NotificationFailedHandler{
		notiRepo:     notiRepo,
		prefRepo:     prefRepo,
		router:       router,
		sender:       sender,
		deduper:      deduper,
		retryCounter: retryCounter,
		publisher:    publisher,
		logger:       log,
	}
}

func (h *NotificationFailedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.NotificationFailedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal notification.failed payload (non-retryable)",
			zap.Error(err),
		)
		return nil
	}

	log := logger.WithTrace(ctx, h.logger)

	// A redelivered event must not burn a fallback hop or re-send.
	dedupeKey := fmt.Sprintf("%d:%s", p.NotificationID, p.Channel)
	if !h.deduper.AcquireOnce(ctx, "notification_failed", dedupeKey) {
		log.Info("Duplicate notification.failed event, skipping",
			zap.Int("notification_id", p.NotificationID),
			zap.String("channel", p.Channel),
		)
		return nil
	}

	// Bound the fallback walk so a flapping vendor can't loop forever.
	hops, err := h.retryCounter.IncrementAndGet(ctx, util.FormatRetryKey("notification_fallback", p.NotificationID))
	if err != nil {
		log.Warn("Retry counter unavailable, proceeding", zap.Error(err))
	}
	if hops > maxFallbackHops {
		log.Error("Notification exhausted fallback channels",
			zap.Int("notification_id", p.NotificationID),
			zap.Int64("hops", hops),
		)
		metrics.IncrementDeliveryAttempt(p.Channel, "undeliverable")
		return h.markUndeliverable(ctx, p, raw)
	}

	noti, err := h.notiRepo.GetByID(ctx, p.NotificationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Notification row gone, dropping fallback",
				zap.Int("notification_id", p.NotificationID),
			)
			return nil
		}
		return err
	}

	prefs, err := h.prefRepo.Get(ctx, p.UserID)
	if err != nil {
		return err
	}
	contact, err := h.prefRepo.GetContactInfo(ctx, p.UserID)
	if err != nil {
		return err
	}

	next, ok := h.nextChannel(p.Channel, comms.Request{
		Type:    noti.Type,
		Urgency: noti.Urgency,
		Prefs:   prefs,
		Contact: contact,
	})
	if !ok {
		log.Warn("No fallback channel available",
			zap.Int("notification_id", p.NotificationID),
			zap.String("failed_channel", p.Channel),
		)
		return h.markUndeliverable(ctx, p, raw)
	}

	log.Info("Falling back to next channel",
		zap.Int("notification_id", p.NotificationID),
		zap.String("failed_channel", p.Channel),
		zap.String("next_channel", next),
	)

	if err := h.notiRepo.UpdateStatus(ctx, p.NotificationID, model.NotificationStatusPending, next); err != nil {
		return err
	}

	if err := h.sender.SendNotification(ctx, p.NotificationID, p.UserID, next, noti.Content); err != nil {
		// The sender emitted another notification.failed; the chain continues
		// until the hop bound trips.
		log.Warn("Fallback delivery failed",
			zap.Int("notification_id", p.NotificationID),
			zap.String("channel", next),
			zap.Error(err),
		)
	}
	return nil
}

func (h *NotificationFailedHandler) nextChannel(failed string, req comms.Request) (string, bool) {
	decision := h.router.Route(req)
	if !decision.Deliverable {
		return "", false
	}
	for _, ch := range append([]string{decision.Channel}, decision.FallbackChain...) {
		if ch != failed {
			return ch, true
		}
	}
	return "", false
}

// markUndeliverable parks the notification and dead-letters the event so an
// operator can inspect what never reached the user.
func (h *NotificationFailedHandler) markUndeliverable(ctx context.Context, p mqcontracts.NotificationFailedPayload, raw json.RawMessage) error {
	if err := h.notiRepo.UpdateStatus(ctx, p.NotificationID, model.NotificationStatusUndeliverable, p.Channel); err != nil {
		return fmt.Errorf("failed to mark notification undeliverable: %w", err)
	}
	if err := h.publisher.PublishToDLQ("notification.failed", raw, p.Error); err != nil {
		logger.WithTrace(ctx, h.logger).Warn("Failed to dead-letter notification",
			zap.Int("notification_id", p.NotificationID),
			zap.Error(err),
		)
	}
	return nil
}
