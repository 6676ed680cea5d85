package mq

// ReminderDuePayload is published when the scheduler enqueues a reminder.
type ReminderDuePayload struct {
	ReminderID int    `json:"reminder_id"`
	HabitID    int    `json:"habit_id"`
	UserID     int    `json:"user_id"`
	Title      string `json:"title"`
	DueDate    string `json:"due_date"` // "2006-01-02"
	TraceID    string `json:"trace_id,omitempty"`
}
