package mq

import "time"

// AgentActionFailedPayload is published when an agent action errors out.
type AgentActionFailedPayload struct {
	PendingActionID int    `json:"pending_action_id"`
	UserID          int    `json:"user_id"`
	ActionType      string `json:"action_type"`
	ErrorCode       string `json:"error_code"`
	ErrorDetail     string `json:"error_detail,omitempty"`
	TraceID         string `json:"trace_id,omitempty"`
}

// AgentActionRecoveredPayload is published when a retry finally succeeds.
type AgentActionRecoveredPayload struct {
	PendingActionID int       `json:"pending_action_id"`
	UserID          int       `json:"user_id"`
	ActionType      string    `json:"action_type"`
	Attempts        int       `json:"attempts"`
	RecoveredAt     time.Time `json:"recovered_at"`
}

// OutreachRequestedPayload is published when the outreach queue drains a row.
type OutreachRequestedPayload struct {
	PendingActionID int    `json:"pending_action_id"`
	UserID          int    `json:"user_id"`
	ActionType      string `json:"action_type"`
	Attempt         int    `json:"attempt"`
	TraceID         string `json:"trace_id,omitempty"`
}
