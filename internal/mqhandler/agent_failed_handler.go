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
	"aicoach/internal/comms"
	"aicoach/internal/repository"
	"aicoach/internal/service"
	"aicoach/pkg/logger"
	"aicoach/pkg/metrics"
	"aicoach/pkg/util"
)

// agentRetryBackoff spaces out re-attempts of a failed agent action.
const agentRetryBackoff = 5 * time.Minute

// AgentFailedHandler classifies agent.action.failed events and applies the
// prescribed recovery action.
type AgentFailedHandler struct {
	actionRepo *repository.PendingActionRepository
	notifier   *service.Notifier
	deduper    *util.Deduper
	logger     *zap.Logger
	now        func() time.Time
}

func NewAgentFailedHandler(
	actionRepo *repository.PendingActionRepository,
	notifier *service.Notifier,
	deduper *util.Deduper,
	log *zap.Logger,
) *AgentFailedHandler {
	return &AgentFailedHandler{
		actionRepo: actionRepo,
		notifier:   notifier,
		deduper:    deduper,
		logger:     log,
		now:        time.Now,
	}
}

func (h *AgentFailedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.AgentActionFailedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal agent.action.failed payload (non-retryable)",
			zap.Error(err),
		)
		return nil
	}

	log := logger.WithTrace(ctx, h.logger)

	dedupeKey := fmt.Sprintf("%d:%s", p.PendingActionID, p.ErrorCode)
	if !h.deduper.AcquireOnce(ctx, "agent_failed", dedupeKey) {
		log.Info("Duplicate agent.action.failed event, skipping",
			zap.Int("pending_action_id", p.PendingActionID),
		)
		return nil
	}

	class := agenterr.Classify(p.ErrorCode)
	metrics.IncrementAgentError(p.ErrorCode, string(class.Severity))

	log.Warn("Agent action failed",
		zap.Int("pending_action_id", p.PendingActionID),
		zap.Int("user_id", p.UserID),
		zap.String("action_type", p.ActionType),
		zap.String("error_code", p.ErrorCode),
		zap.String("severity", string(class.Severity)),
		zap.String("recovery_action", string(class.RecoveryAction)),
	)

	switch class.RecoveryAction {
	case agenterr.ActionRetry:
		return h.scheduleRetry(ctx, p, class)
	case agenterr.ActionNotifyUser:
		return h.notifyAndPark(ctx, p, class)
	case agenterr.ActionEscalate:
		return h.escalate(ctx, p, class)
	case agenterr.ActionPauseAgent:
		return h.pauseAgent(ctx, p, class)
	default:
		return h.escalate(ctx, p, class)
	}
}

func (h *AgentFailedHandler) scheduleRetry(ctx context.Context, p mqcontracts.AgentActionFailedPayload, class agenterr.Classification) error {
	action, err := h.actionRepo.GetByID(ctx, p.PendingActionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if action.Attempts >= action.MaxAttempts {
		logger.WithTrace(ctx, h.logger).Error("Agent action exhausted retries, escalating",
			zap.Int("pending_action_id", p.PendingActionID),
			zap.Int("attempts", action.Attempts),
		)
		return h.escalate(ctx, p, class)
	}
	return h.actionRepo.ScheduleRetry(ctx, p.PendingActionID, p.ErrorCode, p.ErrorDetail,
		h.now().Add(time.Duration(action.Attempts+1)*agentRetryBackoff))
}

// notifyAndPark tells the user what broke and parks the action so it does
// not keep failing against the same precondition.
func (h *AgentFailedHandler) notifyAndPark(ctx context.Context, p mqcontracts.AgentActionFailedPayload, class agenterr.Classification) error {
	if err := h.actionRepo.MarkFailed(ctx, p.PendingActionID, p.ErrorCode, p.ErrorDetail); err != nil {
		return err
	}
	_, err := h.notifier.Notify(ctx, p.UserID, comms.TypeAgentError, urgencyForSeverity(class.Severity), class.UserMessage)
	return err
}

// escalate parks the action for the admin queue without messaging the user.
func (h *AgentFailedHandler) escalate(ctx context.Context, p mqcontracts.AgentActionFailedPayload, class agenterr.Classification) error {
	return h.actionRepo.MarkFailed(ctx, p.PendingActionID, p.ErrorCode, p.ErrorDetail)
}

// pauseAgent halts everything queued for the user and sends an urgent
// notification. Parked actions stay down until an admin requeues them.
func (h *AgentFailedHandler) pauseAgent(ctx context.Context, p mqcontracts.AgentActionFailedPayload, class agenterr.Classification) error {
	parked, err := h.actionRepo.ParkAllActiveForUser(ctx, p.UserID, p.ErrorCode, p.ErrorDetail)
	if err != nil {
		return err
	}
	logger.WithTrace(ctx, h.logger).Error("Agent paused for user",
		zap.Int("user_id", p.UserID),
		zap.String("error_code", p.ErrorCode),
		zap.Int64("parked_actions", parked),
	)
	_, err = h.notifier.Notify(ctx, p.UserID, comms.TypeAgentError, comms.UrgencyUrgent, class.UserMessage)
	return err
}

func urgencyForSeverity(s agenterr.Severity) string {
	switch s {
	case agenterr.SeverityCritical:
		return comms.UrgencyUrgent
	case agenterr.SeverityError:
		return comms.UrgencyNormal
	default:
		return comms.UrgencyLow
	}
}
