package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aicoach/internal/repository"
)

type ReminderHandler struct {
	repo   *repository.ReminderRepository
	logger *zap.Logger
}

func NewReminderHandler(repo *repository.ReminderRepository, logger *zap.Logger) *ReminderHandler {
	return &ReminderHandler{repo: repo, logger: logger}
}

// ListReminders returns the authenticated user's recent reminders.
// GET /reminders?limit=50
func (h *ReminderHandler) ListReminders(c *gin.Context) {
	userID := c.GetInt("user_id")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}

	reminders, err := h.repo.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		h.logger.Error("ListReminders: failed to fetch reminders",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reminders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminders": reminders})
}
