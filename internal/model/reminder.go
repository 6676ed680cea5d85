package model

import "time"

// Reminder statuses.
const (
	ReminderStatusPending = "pending"
	ReminderStatusSent    = "sent"
	ReminderStatusFailed  = "failed"
)

type Reminder struct {
	ID        int       `json:"id"`
	HabitID   int       `json:"habit_id"`
	UserID    int       `json:"user_id"`
	Title     string    `json:"title"`
	DueDate   time.Time `json:"due_date"`
	Status    string    `json:"status"`
	Channel   string    `json:"channel,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
