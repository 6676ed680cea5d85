package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aicoach/internal/model"
	"aicoach/internal/repository"
	"aicoach/pkg/outbox"
)

type AdminHandler struct {
	actionRepo    *repository.PendingActionRepository
	outboxRepo    *outbox.Repository
	replayService *outbox.ReplayService
	logger        *zap.Logger
}

func NewAdminHandler(
	actionRepo *repository.PendingActionRepository,
	outboxRepo *outbox.Repository,
	replayService *outbox.ReplayService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		actionRepo:    actionRepo,
		outboxRepo:    outboxRepo,
		replayService: replayService,
		logger:        logger,
	}
}

// ListPendingActions lists agent actions by status for triage.
// GET /admin/pending-actions?status=failed&limit=100
func (h *AdminHandler) ListPendingActions(c *gin.Context) {
	status := c.DefaultQuery("status", model.PendingActionStatusFailed)
	switch status {
	case model.PendingActionStatusQueued, model.PendingActionStatusRetrying,
		model.PendingActionStatusFailed, model.PendingActionStatusCompleted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 100
	}

	actions, err := h.actionRepo.ListByStatus(c.Request.Context(), status, limit)
	if err != nil {
		h.logger.Error("ListPendingActions: failed to fetch actions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch pending actions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pending_actions": actions, "status": status})
}

// RetryPendingAction requeues a parked action.
// POST /admin/pending-actions/:id/retry
func (h *AdminHandler) RetryPendingAction(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action id"})
		return
	}

	if err := h.actionRepo.ResetForRetry(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no failed action with that id"})
			return
		}
		h.logger.Error("RetryPendingAction: failed to reset action",
			zap.Int("action_id", id),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retry action"})
		return
	}

	h.logger.Info("RetryPendingAction: requeued", zap.Int("action_id", id))
	c.JSON(http.StatusOK, gin.H{"status": "requeued", "action_id": id})
}

// ListFailedOutboxEvents lists parked outbox events.
// GET /admin/outbox/failed?limit=100
func (h *AdminHandler) ListFailedOutboxEvents(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 100
	}

	events, err := h.outboxRepo.GetFailedEvents(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("ListFailedOutboxEvents: failed to fetch events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch outbox events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// ReplayOutboxEvent republishes a single outbox event.
// POST /admin/outbox/:id/replay
func (h *AdminHandler) ReplayOutboxEvent(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	if err := h.replayService.ReplayEvent(c.Request.Context(), eventID); err != nil {
		h.logger.Error("Failed to replay event",
			zap.Int64("event_id", eventID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to replay event",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "replayed", "event_id": eventID})
}

// ReplayFailedOutboxEvents republishes every parked outbox event.
// POST /admin/outbox/replay-failed?limit=100
func (h *AdminHandler) ReplayFailedOutboxEvents(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	successCount, err := h.replayService.ReplayFailedEvents(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to replay failed events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to replay failed events",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "completed",
		"success_count": successCount,
		"limit":         limit,
	})
}
