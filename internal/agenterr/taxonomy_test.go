package agenterr

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyKnownCodes(t *testing.T) {
	tests := []struct {
		code     string
		severity Severity
		action   RecoveryAction
		retry    bool
		status   int
	}{
		{CodeLLMTimeout, SeverityWarning, ActionRetry, true, http.StatusGatewayTimeout},
		{CodeLLMRateLimited, SeverityWarning, ActionRetry, true, http.StatusTooManyRequests},
		{CodeLLMInvalidResponse, SeverityError, ActionEscalate, false, http.StatusBadGateway},
		{CodeToolNotFound, SeverityError, ActionEscalate, false, http.StatusNotImplemented},
		{CodeToolExecutionFailed, SeverityError, ActionRetry, true, http.StatusBadGateway},
		{CodeCalendarAuthExpired, SeverityWarning, ActionNotifyUser, false, http.StatusUnauthorized},
		{CodeCalendarConflict, SeverityInfo, ActionNotifyUser, false, http.StatusConflict},
		{CodeTTSProviderDown, SeverityWarning, ActionRetry, true, http.StatusServiceUnavailable},
		{CodeTelephonyFailed, SeverityError, ActionNotifyUser, true, http.StatusBadGateway},
		{CodeDBConflict, SeverityWarning, ActionRetry, true, http.StatusConflict},
		{CodeUserNotFound, SeverityError, ActionEscalate, false, http.StatusNotFound},
		{CodeQuotaExceeded, SeverityCritical, ActionPauseAgent, false, http.StatusPaymentRequired},
		{CodeActionUnsupported, SeverityInfo, ActionNotifyUser, false, http.StatusUnprocessableEntity},
		{CodeInternal, SeverityCritical, ActionPauseAgent, false, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c := Classify(tt.code)
			assert.Equal(t, tt.code, c.Code)
			assert.Equal(t, tt.severity, c.Severity)
			assert.Equal(t, tt.action, c.RecoveryAction)
			assert.Equal(t, tt.retry, c.Retryable)
			assert.Equal(t, tt.status, c.HTTPStatus)
			assert.NotEmpty(t, c.UserMessage)
		})
	}
}

func TestClassifyUnknownCode(t *testing.T) {
	c := Classify("alien_error")
	assert.Equal(t, "alien_error", c.Code)
	assert.Equal(t, SeverityError, c.Severity)
	assert.Equal(t, ActionEscalate, c.RecoveryAction)
	assert.False(t, c.Retryable)
	assert.Equal(t, http.StatusInternalServerError, c.HTTPStatus)
}

func TestKnownCodesCoversTaxonomy(t *testing.T) {
	codes := KnownCodes()
	assert.Len(t, codes, 14)
	assert.Contains(t, codes, CodeQuotaExceeded)
	assert.Contains(t, codes, CodeLLMTimeout)
}

func TestSeverityAtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityError))
	assert.True(t, SeverityError.AtLeast(SeverityError))
	assert.False(t, SeverityInfo.AtLeast(SeverityWarning))
}
