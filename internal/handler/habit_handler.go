package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aicoach/internal/model"
	"aicoach/internal/repository"
	"aicoach/internal/scheduler"
)

type HabitHandler struct {
	repo   *repository.HabitRepository
	logger *zap.Logger
}

func NewHabitHandler(repo *repository.HabitRepository, logger *zap.Logger) *HabitHandler {
	return &HabitHandler{repo: repo, logger: logger}
}

type habitRequest struct {
	Title             string `json:"title" binding:"required"`
	RecurrencePattern string `json:"recurrence_pattern" binding:"required"`
	SendTime          string `json:"send_time"`
}

// CreateHabit registers a habit for the authenticated user.
// POST /habits
func (h *HabitHandler) CreateHabit(c *gin.Context) {
	userID := c.GetInt("user_id")

	var req habitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := scheduler.ValidatePattern(req.RecurrencePattern); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	habit := &model.Habit{
		UserID:            userID,
		Title:             req.Title,
		RecurrencePattern: req.RecurrencePattern,
		SendTime:          req.SendTime,
		IsActive:          true,
	}
	id, err := h.repo.Insert(c.Request.Context(), habit)
	if err != nil {
		h.logger.Error("CreateHabit: failed to insert habit",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create habit"})
		return
	}

	h.logger.Info("CreateHabit: success", zap.Int("habit_id", id), zap.Int("user_id", userID))
	habit.ID = id
	c.JSON(http.StatusCreated, habit)
}

// ListHabits returns the authenticated user's habits.
// GET /habits
func (h *HabitHandler) ListHabits(c *gin.Context) {
	userID := c.GetInt("user_id")

	habits, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("ListHabits: failed to fetch habits",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch habits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"habits": habits})
}

// UpdateHabit edits a habit the authenticated user owns.
// PUT /habits/:id
func (h *HabitHandler) UpdateHabit(c *gin.Context) {
	userID := c.GetInt("user_id")

	habitID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid habit id"})
		return
	}

	var req habitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := scheduler.ValidatePattern(req.RecurrencePattern); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.repo.GetByID(c.Request.Context(), habitID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "habit not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch habit"})
		return
	}
	if existing.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "habit not found"})
		return
	}

	existing.Title = req.Title
	existing.RecurrencePattern = req.RecurrencePattern
	existing.SendTime = req.SendTime
	if err := h.repo.Update(c.Request.Context(), existing); err != nil {
		h.logger.Error("UpdateHabit: failed to update habit",
			zap.Int("habit_id", habitID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update habit"})
		return
	}

	h.logger.Info("UpdateHabit: success", zap.Int("habit_id", habitID))
	c.JSON(http.StatusOK, existing)
}

// DeleteHabit deactivates a habit so the scheduler stops generating reminders.
// DELETE /habits/:id
func (h *HabitHandler) DeleteHabit(c *gin.Context) {
	userID := c.GetInt("user_id")

	habitID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid habit id"})
		return
	}

	if err := h.repo.Deactivate(c.Request.Context(), habitID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "habit not found"})
			return
		}
		h.logger.Error("DeleteHabit: failed to deactivate habit",
			zap.Int("habit_id", habitID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete habit"})
		return
	}

	h.logger.Info("DeleteHabit: success", zap.Int("habit_id", habitID))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
