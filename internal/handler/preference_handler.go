package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aicoach/internal/comms"
	"aicoach/internal/model"
	"aicoach/internal/repository"
)

type PreferenceHandler struct {
	repo   *repository.PreferenceRepository
	logger *zap.Logger
}

func NewPreferenceHandler(repo *repository.PreferenceRepository, logger *zap.Logger) *PreferenceHandler {
	return &PreferenceHandler{repo: repo, logger: logger}
}

// GetPreferences returns delivery settings plus contact endpoints.
// GET /preferences
func (h *PreferenceHandler) GetPreferences(c *gin.Context) {
	userID := c.GetInt("user_id")

	prefs, err := h.repo.Get(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("GetPreferences: failed to fetch preferences",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch preferences"})
		return
	}
	contact, err := h.repo.GetContactInfo(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch contact info"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": prefs, "contact": contact})
}

type preferencesRequest struct {
	ReminderChannel string `json:"reminder_channel"`
	UpdateChannel   string `json:"update_channel"`
	QuietHoursStart string `json:"quiet_hours_start"`
	QuietHoursEnd   string `json:"quiet_hours_end"`
	Timezone        string `json:"timezone"`
	SMSEnabled      bool   `json:"sms_enabled"`
	VoiceEnabled    bool   `json:"voice_enabled"`
	EmailEnabled    bool   `json:"email_enabled"`
	PushEnabled     bool   `json:"push_enabled"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	PushToken       string `json:"push_token"`
}

var validChannels = map[string]bool{
	"":                 true, // keep server default
	comms.ChannelPush:  true,
	comms.ChannelSMS:   true,
	comms.ChannelVoice: true,
	comms.ChannelEmail: true,
}

// UpdatePreferences replaces delivery settings and contact endpoints.
// PUT /preferences
func (h *PreferenceHandler) UpdatePreferences(c *gin.Context) {
	userID := c.GetInt("user_id")

	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !validChannels[req.ReminderChannel] || !validChannels[req.UpdateChannel] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown channel"})
		return
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown timezone"})
			return
		}
	}
	if (req.QuietHoursStart == "") != (req.QuietHoursEnd == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quiet hours need both start and end"})
		return
	}
	if req.QuietHoursStart != "" {
		if err := comms.ValidateClock(req.QuietHoursStart); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quiet_hours_start"})
			return
		}
		if err := comms.ValidateClock(req.QuietHoursEnd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quiet_hours_end"})
			return
		}
	}

	prefs := &model.Preferences{
		UserID:          userID,
		ReminderChannel: req.ReminderChannel,
		UpdateChannel:   req.UpdateChannel,
		QuietHoursStart: req.QuietHoursStart,
		QuietHoursEnd:   req.QuietHoursEnd,
		Timezone:        req.Timezone,
		SMSEnabled:      req.SMSEnabled,
		VoiceEnabled:    req.VoiceEnabled,
		EmailEnabled:    req.EmailEnabled,
		PushEnabled:     req.PushEnabled,
	}
	if err := h.repo.Upsert(c.Request.Context(), prefs); err != nil {
		h.logger.Error("UpdatePreferences: failed to upsert preferences",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update preferences"})
		return
	}

	contact := &model.ContactInfo{
		UserID:    userID,
		Phone:     req.Phone,
		Email:     req.Email,
		PushToken: req.PushToken,
	}
	if err := h.repo.UpsertContactInfo(c.Request.Context(), contact); err != nil {
		h.logger.Error("UpdatePreferences: failed to upsert contact info",
			zap.Int("user_id", userID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update contact info"})
		return
	}

	h.logger.Info("UpdatePreferences: success", zap.Int("user_id", userID))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
