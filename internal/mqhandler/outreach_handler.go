package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	mqcontracts "aicoach/contracts/mq"
	"aicoach/internal/agenterr"
	"aicoach/internal/model"
	"aicoach/internal/repository"
	"aicoach/internal/service"
	"aicoach/pkg/logger"
	"aicoach/pkg/mq"
	"aicoach/pkg/util"
)

// OutreachHandler executes a drained outreach action against the agent
// service and reports the outcome back onto the bus.
type OutreachHandler struct {
	actionRepo *repository.PendingActionRepository
	agent      *service.AgentClient
	publisher  *mq.Publisher
	deduper    *util.Deduper
	logger     *zap.Logger
	now        func() time.Time
}

func NewOutreachHandler(
	actionRepo *repository.PendingActionRepository,
	agent *service.AgentClient,
	publisher *mq.Publisher,
	deduper *util.Deduper,
	log *zap.Logger,
) *OutreachHandler {
	return &OutreachHandler{
		actionRepo: actionRepo,
		agent:      agent,
		publisher:  publisher,
		deduper:    deduper,
		logger:     log,
		now:        time.Now,
	}
}

func (h *OutreachHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.OutreachRequestedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal outreach.requested payload (non-retryable)",
			zap.Error(err),
		)
		return nil
	}

	log := logger.WithTrace(ctx, h.logger)

	dedupeKey := fmt.Sprintf("%d:%d", p.PendingActionID, p.Attempt)
	if !h.deduper.AcquireOnce(ctx, "outreach", dedupeKey) {
		log.Info("Duplicate outreach.requested event, skipping",
			zap.Int("pending_action_id", p.PendingActionID),
		)
		return nil
	}

	action, err := h.actionRepo.GetByID(ctx, p.PendingActionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Outreach action no longer exists", zap.Int("pending_action_id", p.PendingActionID))
			return nil
		}
		return err
	}
	if action.Status == model.PendingActionStatusCompleted || action.Status == model.PendingActionStatusFailed {
		log.Info("Outreach action already settled",
			zap.Int("pending_action_id", p.PendingActionID),
			zap.String("status", action.Status),
		)
		return nil
	}

	result, err := h.agent.Execute(ctx, service.ActionInput{
		PendingActionID: action.ID,
		UserID:          action.UserID,
		ActionType:      action.ActionType,
		Payload:         action.Payload,
	})
	if err != nil {
		// Transport or breaker failure. Map it to an error code and let the
		// agent.action.failed consumer decide retry vs escalation.
		_, code := agenterr.ClassifyError(err)
		return h.publishFailed(ctx, action, code, err.Error())
	}
	if !result.Completed {
		return h.publishFailed(ctx, action, result.ErrorCode, result.Detail)
	}

	if err := h.actionRepo.MarkCompleted(ctx, action.ID); err != nil {
		return err
	}
	log.Info("Outreach action completed",
		zap.Int("pending_action_id", action.ID),
		zap.Int("attempts", action.Attempts+1),
	)
	if action.Attempts > 0 {
		recovered := mqcontracts.AgentActionRecoveredPayload{
			PendingActionID: action.ID,
			UserID:          action.UserID,
			ActionType:      action.ActionType,
			Attempts:        action.Attempts + 1,
			RecoveredAt:     h.now(),
		}
		if err := h.publisher.PublishWithContext(ctx, "agent.action.recovered", recovered); err != nil {
			log.Warn("Failed to publish agent.action.recovered", zap.Error(err))
		}
	}
	return nil
}

func (h *OutreachHandler) publishFailed(ctx context.Context, action *model.PendingAction, code, detail string) error {
	payload := mqcontracts.AgentActionFailedPayload{
		PendingActionID: action.ID,
		UserID:          action.UserID,
		ActionType:      action.ActionType,
		ErrorCode:       code,
		ErrorDetail:     detail,
	}
	if err := h.publisher.PublishWithContext(ctx, "agent.action.failed", payload); err != nil {
		return fmt.Errorf("failed to publish agent.action.failed: %w", err)
	}
	return nil
}
