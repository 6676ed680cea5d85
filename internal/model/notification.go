package model

import "time"

// Notification statuses.
const (
	NotificationStatusPending       = "pending"
	NotificationStatusSent          = "sent"
	NotificationStatusFailed        = "failed"
	NotificationStatusDeferred      = "deferred"
	NotificationStatusUndeliverable = "undeliverable"
)

type Notification struct {
	ID            int        `json:"id"`
	UserID        int        `json:"user_id"`
	Type          string     `json:"type"` // reminder / agent_update / agent_error / outreach / digest
	Urgency       string     `json:"urgency"`
	Channel       string     `json:"channel"`
	Content       string     `json:"content"`
	Status        string     `json:"status"`
	DeferredUntil *time.Time `json:"deferred_until,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
