package model

import (
	"encoding/json"
	"time"
)

// Pending action statuses.
const (
	PendingActionStatusQueued    = "queued"
	PendingActionStatusRetrying  = "retrying"
	PendingActionStatusFailed    = "failed"
	PendingActionStatusCompleted = "completed"
)

// PendingAction is an agent action awaiting execution or retry.
type PendingAction struct {
	ID            int             `json:"id"`
	UserID        int             `json:"user_id"`
	ActionType    string          `json:"action_type"`
	Payload       json.RawMessage `json:"payload"`
	Status        string          `json:"status"`
	ErrorCode     string          `json:"error_code,omitempty"`
	LastError     string          `json:"last_error,omitempty"`
	Attempts      int             `json:"attempts"`
	MaxAttempts   int             `json:"max_attempts"`
	NextAttemptAt *time.Time      `json:"next_attempt_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
