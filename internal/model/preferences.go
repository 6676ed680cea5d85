package model

import "time"

// Preferences holds a user's notification delivery settings.
type Preferences struct {
	UserID          int       `json:"user_id"`
	ReminderChannel string    `json:"reminder_channel"` // preferred channel for reminders
	UpdateChannel   string    `json:"update_channel"`   // preferred channel for agent updates
	QuietHoursStart string    `json:"quiet_hours_start"` // "HH:MM", empty disables quiet hours
	QuietHoursEnd   string    `json:"quiet_hours_end"`
	Timezone        string    `json:"timezone"` // IANA name, e.g. "America/New_York"
	SMSEnabled      bool      `json:"sms_enabled"`
	VoiceEnabled    bool      `json:"voice_enabled"`
	EmailEnabled    bool      `json:"email_enabled"`
	PushEnabled     bool      `json:"push_enabled"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ContactInfo holds the delivery endpoints known for a user.
type ContactInfo struct {
	UserID    int    `json:"user_id"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	PushToken string `json:"push_token,omitempty"`
}
