package agenterr

import "net/http"

// Severity of a classified agent action error.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities for comparison.
var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityError:    2,
	SeverityCritical: 3,
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// RecoveryAction prescribed for an error code.
type RecoveryAction string

const (
	ActionRetry      RecoveryAction = "retry"
	ActionNotifyUser RecoveryAction = "notify_user"
	ActionEscalate   RecoveryAction = "escalate"
	ActionPauseAgent RecoveryAction = "pause_agent"
)

// Classification is the full verdict for an agent action error code.
type Classification struct {
	Code           string         `json:"code"`
	Severity       Severity       `json:"severity"`
	RecoveryAction RecoveryAction `json:"recovery_action"`
	Retryable      bool           `json:"retryable"`
	UserMessage    string         `json:"user_message"`
	HTTPStatus     int            `json:"http_status"`
}

// Agent action error codes.
const (
	CodeLLMTimeout          = "llm_timeout"
	CodeLLMRateLimited      = "llm_rate_limited"
	CodeLLMInvalidResponse  = "llm_invalid_response"
	CodeToolNotFound        = "tool_not_found"
	CodeToolExecutionFailed = "tool_execution_failed"
	CodeCalendarAuthExpired = "calendar_auth_expired"
	CodeCalendarConflict    = "calendar_conflict"
	CodeTTSProviderDown     = "tts_provider_down"
	CodeTelephonyFailed     = "telephony_failed"
	CodeDBConflict          = "db_conflict"
	CodeUserNotFound        = "user_not_found"
	CodeQuotaExceeded       = "quota_exceeded"
	CodeActionUnsupported   = "action_unsupported"
	CodeInternal            = "internal"
)

// taxonomy maps agent action error codes to their classification.
var taxonomy = map[string]Classification{
	CodeLLMTimeout: {
		Code:           CodeLLMTimeout,
		Severity:       SeverityWarning,
		RecoveryAction: ActionRetry,
		Retryable:      true,
		UserMessage:    "Your coach is taking longer than usual. We'll retry shortly.",
		HTTPStatus:     http.StatusGatewayTimeout,
	},
	CodeLLMRateLimited: {
		Code:           CodeLLMRateLimited,
		Severity:       SeverityWarning,
		RecoveryAction: ActionRetry,
		Retryable:      true,
		UserMessage:    "Your coach is busy right now. We'll retry shortly.",
		HTTPStatus:     http.StatusTooManyRequests,
	},
	CodeLLMInvalidResponse: {
		Code:           CodeLLMInvalidResponse,
		Severity:       SeverityError,
		RecoveryAction: ActionEscalate,
		Retryable:      false,
		UserMessage:    "Something went wrong while preparing your coaching update.",
		HTTPStatus:     http.StatusBadGateway,
	},
	CodeToolNotFound: {
		Code:           CodeToolNotFound,
		Severity:       SeverityError,
		RecoveryAction: ActionEscalate,
		Retryable:      false,
		UserMessage:    "That action isn't available right now.",
		HTTPStatus:     http.StatusNotImplemented,
	},
	CodeToolExecutionFailed: {
		Code:           CodeToolExecutionFailed,
		Severity:       SeverityError,
		RecoveryAction: ActionRetry,
		Retryable:      true,
		UserMessage:    "We hit a snag running that action. We'll retry shortly.",
		HTTPStatus:     http.StatusBadGateway,
	},
	CodeCalendarAuthExpired: {
		Code:           CodeCalendarAuthExpired,
		Severity:       SeverityWarning,
		RecoveryAction: ActionNotifyUser,
		Retryable:      false,
		UserMessage:    "Your calendar connection expired. Please reconnect it in settings.",
		HTTPStatus:     http.StatusUnauthorized,
	},
	CodeCalendarConflict: {
		Code:           CodeCalendarConflict,
		Severity:       SeverityInfo,
		RecoveryAction: ActionNotifyUser,
		Retryable:      false,
		UserMessage:    "That time slot conflicts with an existing event.",
		HTTPStatus:     http.StatusConflict,
	},
	CodeTTSProviderDown: {
		Code:           CodeTTSProviderDown,
		Severity:       SeverityWarning,
		RecoveryAction: ActionRetry,
		Retryable:      true,
		UserMessage:    "Voice playback is temporarily unavailable.",
		HTTPStatus:     http.StatusServiceUnavailable,
	},
	CodeTelephonyFailed: {
		Code:           CodeTelephonyFailed,
		Severity:       SeverityError,
		RecoveryAction: ActionNotifyUser,
		Retryable:      true,
		UserMessage:    "We couldn't reach you by phone. We'll try another way.",
		HTTPStatus:     http.StatusBadGateway,
	},
	CodeDBConflict: {
		Code:           CodeDBConflict,
		Severity:       SeverityWarning,
		RecoveryAction: ActionRetry,
		Retryable:      true,
		UserMessage:    "A temporary issue occurred saving your data. We'll retry shortly.",
		HTTPStatus:     http.StatusConflict,
	},
	CodeUserNotFound: {
		Code:           CodeUserNotFound,
		Severity:       SeverityError,
		RecoveryAction: ActionEscalate,
		Retryable:      false,
		UserMessage:    "We couldn't find your account.",
		HTTPStatus:     http.StatusNotFound,
	},
	CodeQuotaExceeded: {
		Code:           CodeQuotaExceeded,
		Severity:       SeverityCritical,
		RecoveryAction: ActionPauseAgent,
		Retryable:      false,
		UserMessage:    "Your coach has been paused because your plan's usage limit was reached.",
		HTTPStatus:     http.StatusPaymentRequired,
	},
	CodeActionUnsupported: {
		Code:           CodeActionUnsupported,
		Severity:       SeverityInfo,
		RecoveryAction: ActionNotifyUser,
		Retryable:      false,
		UserMessage:    "Your coach can't do that yet.",
		HTTPStatus:     http.StatusUnprocessableEntity,
	},
	CodeInternal: {
		Code:           CodeInternal,
		Severity:       SeverityCritical,
		RecoveryAction: ActionPauseAgent,
		Retryable:      false,
		UserMessage:    "Something went wrong on our side. Your coach is paused while we look into it.",
		HTTPStatus:     http.StatusInternalServerError,
	},
}

// unknownClassification is the conservative verdict for codes outside the taxonomy.
var unknownClassification = Classification{
	Severity:       SeverityError,
	RecoveryAction: ActionEscalate,
	Retryable:      false,
	UserMessage:    "Something went wrong. We're looking into it.",
	HTTPStatus:     http.StatusInternalServerError,
}

// Classify returns the classification for an agent action error code.
// Unknown codes classify conservatively: error severity, not retryable, escalate.
func Classify(code string) Classification {
	if c, ok := taxonomy[code]; ok {
		return c
	}
	c := unknownClassification
	c.Code = code
	return c
}

// KnownCodes returns all codes in the taxonomy.
func KnownCodes() []string {
	codes := make([]string, 0, len(taxonomy))
	for code := range taxonomy {
		codes = append(codes, code)
	}
	return codes
}
