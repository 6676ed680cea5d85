package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	mqcontracts "aicoach/contracts/mq"
	"aicoach/internal/agenterr"
	"aicoach/internal/model"
	"aicoach/internal/repository"
	"aicoach/pkg/metrics"
	"aicoach/pkg/outbox"
	"aicoach/pkg/rbac"
	"aicoach/pkg/trace"
)

const defaultMaxAttempts = 5

// AgentErrorHandler receives error reports from the agent runtime, classifies
// them and records a pending action so the worker can apply recovery.
type AgentErrorHandler struct {
	db         *pgxpool.Pool
	actionRepo *repository.PendingActionRepository
	outboxRepo *outbox.Repository
	logger     *zap.Logger
}

func NewAgentErrorHandler(
	db *pgxpool.Pool,
	actionRepo *repository.PendingActionRepository,
	outboxRepo *outbox.Repository,
	logger *zap.Logger,
) *AgentErrorHandler {
	return &AgentErrorHandler{
		db:         db,
		actionRepo: actionRepo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

type agentErrorRequest struct {
	UserID     int             `json:"user_id" binding:"required"`
	ActionType string          `json:"action_type" binding:"required"`
	ErrorCode  string          `json:"error_code" binding:"required"`
	Detail     string          `json:"detail"`
	Payload    json.RawMessage `json:"payload"`
}

// ReportError classifies an agent error and enqueues recovery.
// POST /agent/errors
func (h *AgentErrorHandler) ReportError(c *gin.Context) {
	var req agentErrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// A user may only report failures against their own actions; admins may
	// report on behalf of anyone.
	tokenUserID := c.GetInt("user_id")
	if err := rbac.ValidateUserIDInPayload(tokenUserID, req.UserID); err != nil {
		if !rbac.HasPermission(tokenUserID, rbac.PermissionManagePendingActions) {
			h.logger.Warn("Agent error report rejected, user_id mismatch",
				zap.Int("token_user_id", tokenUserID),
				zap.Int("payload_user_id", req.UserID),
			)
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
	}

	class := agenterr.Classify(req.ErrorCode)
	metrics.IncrementAgentError(class.Code, string(class.Severity))

	h.logger.Warn("Agent error reported",
		zap.Int("user_id", req.UserID),
		zap.String("action_type", req.ActionType),
		zap.String("error_code", req.ErrorCode),
		zap.String("severity", string(class.Severity)),
	)

	ctx := c.Request.Context()
	payload := req.Payload
	if payload == nil {
		payload = json.RawMessage(`{}`)
	}

	tx, err := h.db.Begin(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record agent error"})
		return
	}
	defer tx.Rollback(ctx)

	action := &model.PendingAction{
		UserID:      req.UserID,
		ActionType:  req.ActionType,
		Payload:     payload,
		Status:      model.PendingActionStatusQueued,
		ErrorCode:   class.Code,
		LastError:   req.Detail,
		MaxAttempts: defaultMaxAttempts,
	}
	if class.Retryable {
		next := time.Now().Add(5 * time.Minute)
		action.NextAttemptAt = &next
	}
	actionID, err := h.actionRepo.InsertTx(ctx, tx, action)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record agent error"})
		return
	}

	event := mqcontracts.AgentActionFailedPayload{
		PendingActionID: actionID,
		UserID:          req.UserID,
		ActionType:      req.ActionType,
		ErrorCode:       class.Code,
		ErrorDetail:     req.Detail,
		TraceID:         trace.FromContext(ctx),
	}
	aggregateID := int64(actionID)
	if err := outbox.InsertEventInTx(ctx, tx, h.outboxRepo, "pending_action", &aggregateID, "agent.action.failed", event); err != nil {
		h.logger.Error("ReportError: failed to insert outbox event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record agent error"})
		return
	}

	if err := tx.Commit(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record agent error"})
		return
	}

	c.JSON(class.HTTPStatus, gin.H{
		"pending_action_id": actionID,
		"classification":    class,
		"message":           class.UserMessage,
	})
}

// ListErrorCodes exposes the taxonomy so agent runtimes can stay in sync.
// GET /agent/errors/codes
func (h *AgentErrorHandler) ListErrorCodes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"codes": agenterr.KnownCodes()})
}
