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
	"aicoach/pkg/trace"
)

// Notifier routes a message through the channel policy and persists the
// resulting notification plus its notification.created event.
type Notifier struct {
	db         *pgxpool.Pool
	notiRepo   *repository.NotificationRepository
	prefRepo   *repository.PreferenceRepository
	router     *comms.Router
	outboxRepo *outbox.Repository
	logger     *zap.Logger
}

func NewNotifier(
	db *pgxpool.Pool,
	notiRepo *repository.NotificationRepository,
	prefRepo *repository.PreferenceRepository,
	router *comms.Router,
	logger *zap.Logger,
) *Notifier {
	return &Notifier{
		db:         db,
		notiRepo:   notiRepo,
		prefRepo:   prefRepo,
		router:     router,
		outboxRepo: outbox.NewRepository(db),
		logger:     logger,
	}
}

// Notify routes and enqueues a message for a user. Deferred and
// undeliverable decisions are recorded, never dropped silently.
func (n *Notifier) Notify(ctx context.Context, userID int, msgType, urgency, content string) (*model.Notification, error) {
	prefs, err := n.prefRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	contact, err := n.prefRepo.GetContactInfo(ctx, userID)
	if err != nil {
		return nil, err
	}

	decision := n.router.Route(comms.Request{
		Type:    msgType,
		Urgency: urgency,
		Prefs:   prefs,
		Contact: contact,
	})

	noti := &model.Notification{
		UserID:  userID,
		Type:    msgType,
		Urgency: urgency,
		Channel: decision.Channel,
		Content: content,
	}

	switch {
	case !decision.Deliverable:
		noti.Status = model.NotificationStatusUndeliverable
		metrics.IncrementDeliveryAttempt("none", "undeliverable")
	case decision.Deferred:
		noti.Status = model.NotificationStatusDeferred
		noti.DeferredUntil = &decision.DeferUntil
		metrics.IncrementDeliveryAttempt(decision.Channel, "deferred")
	default:
		noti.Status = model.NotificationStatusPending
	}

	traceID := trace.FromContext(ctx)
	if traceID == "" {
		traceID = trace.GenerateTraceID()
	}

	tx, err := n.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	id, err := n.notiRepo.InsertTx(ctx, tx, noti)
	if err != nil {
		return nil, err
	}
	noti.ID = id

	// Only immediately-sendable notifications get a created event now;
	// deferred ones are re-published when their window opens.
	if noti.Status == model.NotificationStatusPending {
		payload := mqcontracts.NotificationCreatedPayload{
			NotificationID: id,
			UserID:         userID,
			Type:           msgType,
			Urgency:        urgency,
			Channel:        decision.Channel,
			Message:        content,
			CreatedAt:      time.Now(),
			TraceID:        traceID,
		}
		notiID64 := int64(id)
		if err := outbox.InsertEventInTx(ctx, tx, n.outboxRepo, "notification", &notiID64, "notification.created", payload); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	n.logger.Info("Notification enqueued",
		zap.Int("notification_id", id),
		zap.Int("user_id", userID),
		zap.String("type", msgType),
		zap.String("channel", decision.Channel),
		zap.String("status", noti.Status),
		zap.String("reason", decision.Reason),
	)
	return noti, nil
}

// ReleaseDeferred re-publishes up to limit deferred notifications whose
// quiet-hours window has ended. Called from the scheduler loop.
func (n *Notifier) ReleaseDeferred(ctx context.Context, limit int) error {
	if limit <= 0 {
		limit = 100
	}
	ready, err := n.notiRepo.ListDeferredReady(ctx, time.Now(), limit)
	if err != nil {
		return err
	}

	for _, noti := range ready {
		tx, err := n.db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		payload := mqcontracts.NotificationCreatedPayload{
			NotificationID: noti.ID,
			UserID:         noti.UserID,
			Type:           noti.Type,
			Urgency:        noti.Urgency,
			Channel:        noti.Channel,
			Message:        noti.Content,
			CreatedAt:      time.Now(),
			TraceID:        trace.GenerateTraceID(),
		}
		notiID64 := int64(noti.ID)
		if err := outbox.InsertEventInTx(ctx, tx, n.outboxRepo, "notification", &notiID64, "notification.created", payload); err != nil {
			tx.Rollback(ctx)
			return err
		}

		if _, err := tx.Exec(ctx, `
			UPDATE notifications SET status = $1, updated_at = NOW() WHERE id = $2
		`, model.NotificationStatusPending, noti.ID); err != nil {
			tx.Rollback(ctx)
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}

		n.logger.Info("Released deferred notification",
			zap.Int("notification_id", noti.ID),
			zap.Int("user_id", noti.UserID),
		)
	}

	return nil
}
